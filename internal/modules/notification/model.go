// README: Driver notification records produced by dispatch waves and delivered by sinks.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"kwenda/internal/types"
)

type Type string

const (
	TypeRideRequest     Type = "ride_request"
	TypeDeliveryRequest Type = "delivery_request"
)

// Notification is one offer to one driver. NotBefore is when its wave may be
// alerted; ExpiresAt is when the offer lapses.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	DriverID  types.ID       `json:"driver_id"`
	BookingID types.ID       `json:"booking_id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Type      Type           `json:"notification_type"`
	Wave      int            `json:"wave"`
	NotBefore time.Time      `json:"not_before"`
	ExpiresAt time.Time      `json:"expires_at"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// Sink accepts a batch of notifications. Delivery is not acknowledged.
type Sink interface {
	Send(ctx context.Context, batch []Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, batch []Notification) error

func (f SinkFunc) Send(ctx context.Context, batch []Notification) error { return f(ctx, batch) }
