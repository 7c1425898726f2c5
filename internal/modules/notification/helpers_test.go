package notification

import (
	"time"

	"github.com/google/uuid"

	"kwenda/internal/types"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func offer(driver, booking string, wave int) Notification {
	return Notification{
		ID:        uuid.New(),
		DriverID:  types.ID(driver),
		BookingID: types.ID(booking),
		Title:     "New ride request",
		Message:   "Pickup at Gombe",
		Type:      TypeRideRequest,
		Wave:      wave,
		NotBefore: t0,
		ExpiresAt: t0.Add(30 * time.Second),
		Metadata:  map[string]any{"distance_km": 1.5},
		CreatedAt: t0,
	}
}
