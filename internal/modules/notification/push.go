// README: FCM push delivery of due offers to each driver's device topic.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"firebase.google.com/go/v4/messaging"

	"kwenda/internal/types"
)

var ErrExpired = errors.New("notification expired")

// messageSender is the subset of *messaging.Client used here.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type Pusher struct {
	client messageSender
	now    func() time.Time
}

func NewPusher(client *messaging.Client) *Pusher {
	return &Pusher{client: client, now: time.Now}
}

// DriverTopic is the FCM topic the driver app subscribes to after login.
func DriverTopic(id types.ID) string {
	return "driver_" + string(id)
}

func (p *Pusher) Push(ctx context.Context, n Notification) error {
	ttl := n.ExpiresAt.Sub(p.now())
	if ttl <= 0 {
		return ErrExpired
	}
	data := map[string]string{
		"type":            string(n.Type),
		"notification_id": n.ID.String(),
		"booking_id":      string(n.BookingID),
		"wave":            strconv.Itoa(n.Wave),
		"expires_at":      n.ExpiresAt.UTC().Format(time.RFC3339),
	}
	for k, v := range n.Metadata {
		if _, taken := data[k]; !taken {
			data[k] = fmt.Sprint(v)
		}
	}
	msg := &messaging.Message{
		Topic: DriverTopic(n.DriverID),
		Data:  data,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			TTL:      &ttl,
		},
	}
	if _, err := p.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("fcm send to %s: %w", msg.Topic, err)
	}
	return nil
}
