package matching

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kwenda/internal/config"
	"kwenda/internal/modules/notification"
	"kwenda/internal/types"
)

var t0 = time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC)

func rankedPool(n int) []RankedDriver {
	drivers := make([]DriverCandidate, n)
	for i := range drivers {
		drivers[i] = qualified(fmt.Sprintf("d%d", i+1), float64(i)*0.5, 4.5)
	}
	return RankDrivers(drivers, RankingContext{TimeOfDay: 12})
}

func TestBuildWaves_DefaultPlan(t *testing.T) {
	ranked := rankedPool(8)
	waves := BuildWaves(ranked, DefaultWavePlan(), t0)

	require.Len(t, waves, 3)
	assert.Len(t, waves[0].Drivers, 3)
	assert.Len(t, waves[1].Drivers, 3)
	assert.Len(t, waves[2].Drivers, 2)

	assert.Equal(t, t0.Add(30*time.Second), waves[0].ExpiresAt)
	assert.Equal(t, t0.Add(90*time.Second), waves[1].ExpiresAt)
	assert.Equal(t, t0.Add(180*time.Second), waves[2].ExpiresAt)

	assert.Equal(t, t0, waves[0].NotBefore)
	assert.Equal(t, waves[0].ExpiresAt, waves[1].NotBefore)
	assert.Equal(t, waves[1].ExpiresAt, waves[2].NotBefore)

	assert.Equal(t, 1, waves[0].Drivers[0].Rank)
	assert.Equal(t, 4, waves[1].Drivers[0].Rank)
	assert.Equal(t, 7, waves[2].Drivers[0].Rank)
}

func TestBuildWaves_PartitionComplete(t *testing.T) {
	for n := 0; n <= 12; n++ {
		ranked := rankedPool(n)
		waves := BuildWaves(ranked, DefaultWavePlan(), t0)
		total := 0
		for i, w := range waves {
			assert.NotEmpty(t, w.Drivers)
			assert.Equal(t, i+1, w.Number)
			if i > 0 {
				assert.True(t, w.ExpiresAt.After(waves[i-1].ExpiresAt))
			}
			total += len(w.Drivers)
		}
		assert.Equal(t, n, total, "n=%d", n)
	}
}

func TestBuildWaves_FewDriversSingleWave(t *testing.T) {
	waves := BuildWaves(rankedPool(2), DefaultWavePlan(), t0)
	require.Len(t, waves, 1)
	assert.Len(t, waves[0].Drivers, 2)
}

func TestBuildWaves_LastWaveTakesRemainder(t *testing.T) {
	plan := WavePlan{{Size: 2, ExpiresAfter: 20 * time.Second}, {Size: 2, ExpiresAfter: 60 * time.Second}}
	waves := BuildWaves(rankedPool(7), plan, t0)
	require.Len(t, waves, 2)
	assert.Len(t, waves[1].Drivers, 5)
}

func TestPlanFromConfig(t *testing.T) {
	plan := PlanFromConfig(config.DispatchConfig{Waves: []config.WaveConfig{{Size: 5, ExpiresAfterSecs: 45}}})
	assert.Equal(t, WavePlan{{Size: 5, ExpiresAfter: 45 * time.Second}}, plan)
	assert.Equal(t, DefaultWavePlan(), PlanFromConfig(config.DispatchConfig{}))
}

func TestNotifications(t *testing.T) {
	dest := types.Point{Lat: -4.3858, Lng: 15.4446}
	req := DispatchRequest{
		BookingID:          "b42",
		ServiceType:        ServiceDelivery,
		Pickup:             types.Point{Lat: -4.3050, Lng: 15.3000},
		PickupAddress:      "Boulevard du 30 Juin",
		Destination:        &dest,
		DestinationAddress: "Aeroport de Ndjili",
		Price:              types.Money{Amount: 4500, Currency: "CDF"},
	}
	waves := BuildWaves(rankedPool(4), DefaultWavePlan(), t0)

	offers := Notifications(req, waves, t0)

	require.Len(t, offers, 4)
	first := offers[0]
	assert.Equal(t, types.ID("b42"), first.BookingID)
	assert.Equal(t, notification.TypeDeliveryRequest, first.Type)
	assert.Equal(t, "New delivery request", first.Title)
	assert.Equal(t, "Pickup: Boulevard du 30 Juin -> Aeroport de Ndjili. Price: 4500 CDF. 0.0 km away", first.Message)
	assert.Equal(t, 1, first.Wave)
	assert.Equal(t, t0.Add(30*time.Second), first.ExpiresAt)
	assert.Equal(t, 1, first.Metadata["rank"])
	assert.Equal(t, -4.3858, first.Metadata["destination_lat"])

	last := offers[3]
	assert.Equal(t, 2, last.Wave)
	assert.Equal(t, waves[0].ExpiresAt, last.NotBefore)
	assert.NotEqual(t, first.ID, last.ID)
}

func TestNotifications_RideWithoutDestination(t *testing.T) {
	req := DispatchRequest{BookingID: "b1", Pickup: types.Point{Lat: -4.3, Lng: 15.3}}
	offers := Notifications(req, BuildWaves(rankedPool(1), nil, t0), t0)

	require.Len(t, offers, 1)
	assert.Equal(t, notification.TypeRideRequest, offers[0].Type)
	assert.Equal(t, "Pickup: -4.30000,15.30000. 0.0 km away", offers[0].Message)
	assert.NotContains(t, offers[0].Metadata, "destination_lat")
}
