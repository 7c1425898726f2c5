// README: Dispatch waves split ranked drivers into staggered notification batches.
package matching

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kwenda/internal/config"
	"kwenda/internal/modules/notification"
)

func PlanFromConfig(cfg config.DispatchConfig) WavePlan {
	if len(cfg.Waves) == 0 {
		return DefaultWavePlan()
	}
	plan := make(WavePlan, len(cfg.Waves))
	for i, w := range cfg.Waves {
		plan[i] = WaveStep{Size: w.Size, ExpiresAfter: time.Duration(w.ExpiresAfterSecs) * time.Second}
	}
	return plan
}

// BuildWaves partitions ranked in order. The last wave always takes the
// remainder so every driver lands in exactly one wave. Empty waves are
// omitted. A wave opens when the previous one expires.
func BuildWaves(ranked []RankedDriver, plan WavePlan, t0 time.Time) []Wave {
	if len(plan) == 0 {
		plan = DefaultWavePlan()
	}
	var (
		waves     []Wave
		start     int
		notBefore = t0
	)
	for i, step := range plan {
		if start >= len(ranked) {
			break
		}
		end := len(ranked)
		if i < len(plan)-1 && step.Size > 0 && start+step.Size < end {
			end = start + step.Size
		}
		expires := t0.Add(step.ExpiresAfter)
		waves = append(waves, Wave{
			Number:    i + 1,
			Drivers:   ranked[start:end],
			NotBefore: notBefore,
			ExpiresAt: expires,
		})
		start = end
		notBefore = expires
	}
	return waves
}

func notificationType(s ServiceType) notification.Type {
	if s == ServiceDelivery {
		return notification.TypeDeliveryRequest
	}
	return notification.TypeRideRequest
}

func title(s ServiceType) string {
	if s == ServiceDelivery {
		return "New delivery request"
	}
	return "New ride request"
}

// offerMessage renders the text shared by every wave of a booking.
func offerMessage(req DispatchRequest, distanceKm float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pickup: %s", addressOr(req.PickupAddress, req.Pickup.Lat, req.Pickup.Lng))
	if req.Destination != nil || req.DestinationAddress != "" {
		var lat, lng float64
		if req.Destination != nil {
			lat, lng = req.Destination.Lat, req.Destination.Lng
		}
		fmt.Fprintf(&b, " -> %s", addressOr(req.DestinationAddress, lat, lng))
	}
	if req.Price.Amount > 0 {
		fmt.Fprintf(&b, ". Price: %s", req.Price)
	}
	fmt.Fprintf(&b, ". %.1f km away", distanceKm)
	return b.String()
}

func addressOr(addr string, lat, lng float64) string {
	if addr != "" {
		return addr
	}
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}

// Notifications renders one offer per driver per wave.
func Notifications(req DispatchRequest, waves []Wave, now time.Time) []notification.Notification {
	var out []notification.Notification
	for _, w := range waves {
		for _, d := range w.Drivers {
			meta := map[string]any{
				"booking_id":        string(req.BookingID),
				"service_type":      string(req.ServiceType),
				"pickup_lat":        req.Pickup.Lat,
				"pickup_lng":        req.Pickup.Lng,
				"distance_km":       d.DistanceKm,
				"estimated_arrival": d.EstimatedArrival,
				"predicted_score":   d.PredictedScore,
				"rank":              d.Rank,
				"price_amount":      req.Price.Amount,
				"price_currency":    req.Price.Currency,
			}
			if req.Destination != nil {
				meta["destination_lat"] = req.Destination.Lat
				meta["destination_lng"] = req.Destination.Lng
			}
			out = append(out, notification.Notification{
				ID:        uuid.New(),
				DriverID:  d.DriverID,
				BookingID: req.BookingID,
				Title:     title(req.ServiceType),
				Message:   offerMessage(req, d.DistanceKm),
				Type:      notificationType(req.ServiceType),
				Wave:      w.Number,
				NotBefore: w.NotBefore,
				ExpiresAt: w.ExpiresAt,
				Metadata:  meta,
				CreatedAt: now,
			})
		}
	}
	return out
}
