// README: Matching store: Postgres nearby-driver query and Redis dispatch records.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"kwenda/internal/types"
)

const (
	dispatchKeyPrefix = "matching:booking:%s:dispatched_at"
	notifiedKeyPrefix = "matching:booking:%s:notified"
	acceptedKeyPrefix = "matching:booking:%s:accepted_by"
	// Bookings resolve well within a day.
	keyTTL = 24 * time.Hour

	defaultMaxPingAge  = 5 * time.Minute
	defaultNearbyLimit = 50
)

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// nearbySQL computes great-circle distance in SQL so the radius cut happens
// before rows leave the database.
const nearbySQL = `
SELECT l.driver_id, l.dist_km, s.rating_average, s.total_rides, s.acceptance_rate, s.avg_pickup_time, l.last_ping
FROM (
	SELECT driver_id, vehicle_class, last_ping,
		6371 * 2 * asin(sqrt(
			power(sin(radians(lat - $1) / 2), 2) +
			cos(radians($1)) * cos(radians(lat)) * power(sin(radians(lng - $2) / 2), 2)
		)) AS dist_km
	FROM driver_locations
	WHERE is_online AND is_available AND last_ping >= $3
) l
LEFT JOIN driver_stats s ON s.driver_id = l.driver_id
WHERE l.dist_km <= $4
	AND ($5::text = '' OR l.vehicle_class = $5::text)
	AND ($6::float8 <= 0 OR s.rating_average >= $6::float8)
ORDER BY l.dist_km ASC
LIMIT $7`

func (s *Store) NearbyDrivers(ctx context.Context, q NearbyQuery) ([]DriverCandidate, error) {
	maxAge := q.MaxPingAge
	if maxAge <= 0 {
		maxAge = defaultMaxPingAge
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultNearbyLimit
	}
	since := time.Now().Add(-maxAge)

	rows, err := s.db.Query(ctx, nearbySQL,
		q.Center.Lat, q.Center.Lng, since, q.RadiusKm, q.VehicleClass, q.MinRating, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DriverCandidate
	for rows.Next() {
		var (
			c        DriverCandidate
			id       string
			lastPing time.Time
		)
		if err := rows.Scan(&id, &c.DistanceKm, &c.RatingAverage, &c.TotalRides,
			&c.AcceptanceRate, &c.AvgPickupTime, &lastPing); err != nil {
			return nil, err
		}
		c.DriverID = types.ID(id)
		c.LastActive = &lastPing
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecordDispatch stores when the booking was dispatched and which drivers were offered it.
func (s *Store) RecordDispatch(ctx context.Context, bookingID types.ID, driverIDs []types.ID, at time.Time) error {
	pipe := s.redis.Pipeline()
	pipe.Set(ctx, dispatchedAtKey(bookingID), at.UTC().Format(time.RFC3339), keyTTL)
	if len(driverIDs) > 0 {
		members := make([]interface{}, len(driverIDs))
		for i, d := range driverIDs {
			members[i] = string(d)
		}
		pipe.SAdd(ctx, notifiedKey(bookingID), members...)
		pipe.Expire(ctx, notifiedKey(bookingID), keyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) WasNotified(ctx context.Context, bookingID, driverID types.ID) (bool, error) {
	return s.redis.SIsMember(ctx, notifiedKey(bookingID), string(driverID)).Result()
}

// MarkAccepted sets the accepting driver once. It returns false if the booking
// already had one.
func (s *Store) MarkAccepted(ctx context.Context, bookingID, driverID types.ID) (bool, error) {
	return s.redis.SetNX(ctx, acceptedKey(bookingID), string(driverID), keyTTL).Result()
}

func (s *Store) IsAccepted(ctx context.Context, bookingID types.ID) (bool, error) {
	n, err := s.redis.Exists(ctx, acceptedKey(bookingID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func dispatchedAtKey(id types.ID) string { return fmt.Sprintf(dispatchKeyPrefix, string(id)) }
func notifiedKey(id types.ID) string     { return fmt.Sprintf(notifiedKeyPrefix, string(id)) }
func acceptedKey(id types.ID) string     { return fmt.Sprintf(acceptedKeyPrefix, string(id)) }
