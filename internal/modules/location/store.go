// README: Location store backed by Redis GEO with a liveness hash, and Postgres for the query side.
package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"kwenda/internal/types"
)

const (
	driverGeoKey    = "location:drivers"
	driverStatusKey = "location:driver:"
	statusTTL       = 30 * time.Minute
	minPingInterval = time.Second
)

// setPositionScript results.
const (
	applyStale     = 0
	applyApplied   = 1
	applyThrottled = 2
)

// setPositionScript applies a ping only if it is newer than the stored one,
// and at least ARGV[9] ms after it. Offline drivers leave the GEO set.
var setPositionScript = redis.NewScript(`
local last = tonumber(redis.call('HGET', KEYS[2], 'last_ping') or '0')
local ts = tonumber(ARGV[4])
if ts <= last then return 0 end
if ts - last < tonumber(ARGV[9]) then return 2 end
redis.call('HSET', KEYS[2], 'lng', ARGV[1], 'lat', ARGV[2], 'last_ping', ARGV[4],
	'online', ARGV[5], 'available', ARGV[6], 'vehicle_class', ARGV[7])
redis.call('EXPIRE', KEYS[2], ARGV[8])
if ARGV[5] == '1' then
	redis.call('GEOADD', KEYS[1], ARGV[1], ARGV[2], ARGV[3])
else
	redis.call('ZREM', KEYS[1], ARGV[3])
end
return 1
`)

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// SetGeo writes the live position. It returns ReasonStale or ReasonThrottled
// when the ping was ignored.
func (s *Store) SetGeo(ctx context.Context, u DriverUpdate) (RejectReason, error) {
	res, err := setPositionScript.Run(ctx, s.redis,
		[]string{driverGeoKey, driverStatusKey + string(u.DriverID)},
		u.Point.Lng, u.Point.Lat, string(u.DriverID), u.TsMs,
		flag(u.Online), flag(u.Available), u.VehicleClass,
		int(statusTTL.Seconds()), minPingInterval.Milliseconds(),
	).Int()
	if err != nil {
		return "", err
	}
	switch res {
	case applyApplied:
		return "", nil
	case applyThrottled:
		return ReasonThrottled, nil
	default:
		return ReasonStale, nil
	}
}

const upsertLocationSQL = `
INSERT INTO driver_locations (driver_id, lat, lng, is_online, is_available, vehicle_class, last_ping)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
ON CONFLICT (driver_id) DO UPDATE SET
	lat = EXCLUDED.lat,
	lng = EXCLUDED.lng,
	is_online = EXCLUDED.is_online,
	is_available = EXCLUDED.is_available,
	vehicle_class = COALESCE(EXCLUDED.vehicle_class, driver_locations.vehicle_class),
	last_ping = EXCLUDED.last_ping
WHERE driver_locations.last_ping <= EXCLUDED.last_ping`

// Persist upserts the position used by the nearby-driver query.
func (s *Store) Persist(ctx context.Context, u DriverUpdate) error {
	_, err := s.db.Exec(ctx, upsertLocationSQL,
		string(u.DriverID), u.Point.Lat, u.Point.Lng, u.Online, u.Available, u.VehicleClass, u.Time())
	return err
}

// CountAvailable counts drivers in the GEO set within radiusKm that are online,
// available and pinged at or after since.
func (s *Store) CountAvailable(ctx context.Context, center types.Point, radiusKm float64, since time.Time) (int, error) {
	ids, err := s.redis.GeoSearch(ctx, driverGeoKey, &redis.GeoSearchQuery{
		Longitude:  center.Lng,
		Latitude:   center.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.SliceCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HMGet(ctx, driverStatusKey+id, "online", "available", "last_ping")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}

	vals := make([][]interface{}, len(cmds))
	for i, cmd := range cmds {
		if v, err := cmd.Result(); err == nil {
			vals[i] = v
		}
	}
	n, gone := tallyStatuses(ids, vals, since.UnixMilli())
	if len(gone) > 0 {
		// Members whose status hash expired only come back on the next ping.
		if err := s.redis.ZRem(ctx, driverGeoKey, gone...).Err(); err != nil {
			return n, fmt.Errorf("prune expired drivers: %w", err)
		}
	}
	return n, nil
}

// tallyStatuses counts online, available drivers pinged at or after cutoff.
// It also returns the members whose status hash no longer exists.
func tallyStatuses(ids []string, vals [][]interface{}, cutoff int64) (int, []interface{}) {
	var (
		n    int
		gone []interface{}
	)
	for i, v := range vals {
		if len(v) != 3 {
			continue
		}
		if v[0] == nil && v[1] == nil && v[2] == nil {
			gone = append(gone, ids[i])
			continue
		}
		if str(v[0]) != "1" || str(v[1]) != "1" {
			continue
		}
		ping, err := strconv.ParseInt(str(v[2]), 10, 64)
		if err != nil || ping < cutoff {
			continue
		}
		n++
	}
	return n, gone
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
