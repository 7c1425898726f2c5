package location

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kwenda/internal/types"
)

// ---------------------------------------------------------------------------
// Unit tests with an in-memory store
// ---------------------------------------------------------------------------

type memStore struct {
	reason    RejectReason
	geoErr    error
	persisted []DriverUpdate
	since     time.Time
	count     int
}

func (m *memStore) SetGeo(_ context.Context, _ DriverUpdate) (RejectReason, error) {
	return m.reason, m.geoErr
}

func (m *memStore) Persist(_ context.Context, u DriverUpdate) error {
	m.persisted = append(m.persisted, u)
	return nil
}

func (m *memStore) CountAvailable(_ context.Context, _ types.Point, _ float64, since time.Time) (int, error) {
	m.since = since
	return m.count, nil
}

var kinshasa = types.Point{Lat: -4.3217, Lng: 15.3125}

func newTestService(store *memStore, now time.Time) *Service {
	svc := NewService(store, nil, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestUpdateDriverLocation_Accepted(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store := &memStore{}
	svc := newTestService(store, now)

	res, err := svc.UpdateDriverLocation(context.Background(), DriverUpdate{
		DriverID: "d1", Point: kinshasa, Online: true, Available: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	require.Len(t, store.persisted, 1)
	assert.Equal(t, now.UnixMilli(), store.persisted[0].TsMs)
}

func TestUpdateDriverLocation_FutureTimestampClamped(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store := &memStore{}
	svc := newTestService(store, now)

	_, err := svc.UpdateDriverLocation(context.Background(), DriverUpdate{
		DriverID: "d1", Point: kinshasa, TsMs: now.Add(time.Hour).UnixMilli(),
	})
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), store.persisted[0].TsMs)
}

func TestUpdateDriverLocation_StaleNotPersisted(t *testing.T) {
	store := &memStore{reason: ReasonStale}
	svc := newTestService(store, time.Now())

	res, err := svc.UpdateDriverLocation(context.Background(), DriverUpdate{DriverID: "d1", Point: kinshasa})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonStale, res.Reason)
	assert.Empty(t, store.persisted)
}

func TestUpdateDriverLocation_Validation(t *testing.T) {
	svc := newTestService(&memStore{}, time.Now())

	_, err := svc.UpdateDriverLocation(context.Background(), DriverUpdate{Point: kinshasa})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.UpdateDriverLocation(context.Background(), DriverUpdate{DriverID: "d1", Point: types.Point{Lat: 120}})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestUpdateDriverLocation_RedisError(t *testing.T) {
	store := &memStore{geoErr: errors.New("connection reset")}
	svc := newTestService(store, time.Now())

	_, err := svc.UpdateDriverLocation(context.Background(), DriverUpdate{DriverID: "d1", Point: kinshasa})
	require.Error(t, err)
	assert.Empty(t, store.persisted)
}

func TestCountAvailable_UsesFreshnessWindow(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	store := &memStore{count: 4}
	svc := newTestService(store, now)

	n, err := svc.CountAvailable(context.Background(), kinshasa, 5, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, now.Add(-5*time.Minute), store.since)
}

// ---------------------------------------------------------------------------
// Integration: Redis GEO index
// ---------------------------------------------------------------------------

func TestStore_SetGeoAndCount(t *testing.T) {
	redisAddr := os.Getenv("KWENDA_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("KWENDA_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store := NewStore(nil, rdb)
	ctx := context.Background()
	id := types.ID("driver_test_" + time.Now().Format("150405.000000"))
	defer rdb.ZRem(ctx, driverGeoKey, string(id))
	defer rdb.Del(ctx, driverStatusKey+string(id))

	now := time.Now()
	u := DriverUpdate{DriverID: id, Point: kinshasa, TsMs: now.UnixMilli(), Online: true, Available: true}
	reason, err := store.SetGeo(ctx, u)
	require.NoError(t, err)
	assert.Empty(t, reason)

	pos, err := rdb.GeoPos(ctx, driverGeoKey, string(id)).Result()
	require.NoError(t, err)
	require.NotNil(t, pos[0])

	reason, err = store.SetGeo(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, ReasonStale, reason)

	u.TsMs += 10
	reason, err = store.SetGeo(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, ReasonThrottled, reason)

	n, err := store.CountAvailable(ctx, kinshasa, 1, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestStore_CountPrunesExpiredMembers(t *testing.T) {
	redisAddr := os.Getenv("KWENDA_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("KWENDA_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store := NewStore(nil, rdb)
	ctx := context.Background()
	id := "driver_gone_" + time.Now().Format("150405.000000")
	defer rdb.ZRem(ctx, driverGeoKey, id)
	require.NoError(t, rdb.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{Name: id, Longitude: kinshasa.Lng, Latitude: kinshasa.Lat}).Err())

	_, err := store.CountAvailable(ctx, kinshasa, 1, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	pos, err := rdb.GeoPos(ctx, driverGeoKey, id).Result()
	require.NoError(t, err)
	assert.Nil(t, pos[0])
}
