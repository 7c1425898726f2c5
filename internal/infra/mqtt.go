// README: MQTT client connection for the in-app offer channel.
package infra

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"kwenda/internal/config"
)

func NewMQTT(cfg config.MQTTConfig) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return client, nil
}
