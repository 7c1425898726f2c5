// README: MQTT in-app channel publishing an opened offer to the driver's topic.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const mqttPublishTimeout = 5 * time.Second

// mqttClient is the subset of paho.Client used here.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// MQTTPublisher is a DevicePusher. The relay calls it only once an offer's
// wave is open.
type MQTTPublisher struct {
	client mqttClient
	prefix string
	qos    byte
}

func NewMQTTPublisher(client paho.Client, prefix string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: prefix, qos: qos}
}

func (p *MQTTPublisher) topic(n Notification) string {
	return fmt.Sprintf("%s/%s/offers", p.prefix, n.DriverID)
}

func (p *MQTTPublisher) Push(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification %s: %w", n.ID, err)
	}
	tok := p.client.Publish(p.topic(n), p.qos, false, body)
	if !tok.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish to %s: timeout", p.topic(n))
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic(n), err)
	}
	return nil
}
