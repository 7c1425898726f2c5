package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankDrivers_ExampleScenario(t *testing.T) {
	a := DriverCandidate{
		DriverID:       "A",
		DistanceKm:     1,
		RatingAverage:  f64(4.8),
		TotalRides:     intp(200),
		AcceptanceRate: f64(0.9),
		AvgPickupTime:  f64(4),
	}
	b := DriverCandidate{DriverID: "B", DistanceKm: 5, RatingAverage: f64(4.0)}
	ctx := RankingContext{Priority: PriorityNormal, TimeOfDay: 12}

	ranked := RankDrivers([]DriverCandidate{b, a}, ctx)

	require.Len(t, ranked, 2)
	assert.Equal(t, "A", string(ranked[0].DriverID))
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 192, ranked[0].PredictedScore)
	assert.Equal(t, 4, ranked[0].EstimatedArrival)
	assert.Equal(t, "B", string(ranked[1].DriverID))
	assert.Equal(t, 2, ranked[1].Rank)
	assert.Equal(t, 152, ranked[1].PredictedScore)
}

func TestRanker_Bonuses(t *testing.T) {
	r := NewRanker()
	star := qualified("star", 1.5, 4.6)
	base := r.Score(star, RankingContext{Priority: PriorityNormal, TimeOfDay: 12})

	tests := []struct {
		name  string
		c     DriverCandidate
		ctx   RankingContext
		bonus int
	}{
		{"high priority top rated", star, RankingContext{Priority: PriorityHigh, TimeOfDay: 12}, 20},
		{"rush hour short pickup", star, RankingContext{Priority: PriorityNormal, TimeOfDay: 8}, 15},
		{"both", star, RankingContext{Priority: PriorityHigh, TimeOfDay: 18}, 35},
		{"evening outside rush", star, RankingContext{Priority: PriorityNormal, TimeOfDay: 20}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, base+tt.bonus, r.Score(tt.c, tt.ctx))
		})
	}

	far := qualified("far", 2, 4.4)
	farBase := r.Score(far, RankingContext{TimeOfDay: 12})
	assert.Equal(t, farBase, r.Score(far, RankingContext{Priority: PriorityHigh, TimeOfDay: 8}),
		"no rush-hour bonus at 2km and no priority bonus below 4.5")
}

func TestRanker_DistanceMonotonic(t *testing.T) {
	r := NewRanker()
	ctx := RankingContext{Priority: PriorityNormal, TimeOfDay: 8}
	prev := r.Score(qualified("d", 0, 4), ctx)
	for d := 0.25; d <= 15; d += 0.25 {
		s := r.Score(qualified("d", d, 4), ctx)
		assert.LessOrEqual(t, s, prev, "distance %.2f", d)
		prev = s
	}
}

func TestRanker_DenseRanksAndStableTies(t *testing.T) {
	drivers := []DriverCandidate{
		qualified("x", 3, 4),
		qualified("y", 1, 4.9),
		qualified("z", 3, 4),
		qualified("w", 3, 4),
	}
	ctx := RankingContext{TimeOfDay: 12}

	first := RankDrivers(drivers, ctx)
	second := RankDrivers(drivers, ctx)
	assert.Equal(t, first, second)

	ids := make([]string, len(first))
	for i, d := range first {
		assert.Equal(t, i+1, d.Rank)
		ids[i] = string(d.DriverID)
	}
	assert.Equal(t, []string{"y", "x", "z", "w"}, ids)
}

func TestRanker_MissingStatsUseDefaults(t *testing.T) {
	bare := DriverCandidate{DriverID: "new", DistanceKm: 0}
	// 100 + 100*.4 + 70*.25 + 0 + 70*.1 + 50*.1
	assert.Equal(t, 170, NewRanker().Score(bare, RankingContext{TimeOfDay: 12}))
}

func TestSelectBestDriver(t *testing.T) {
	assert.Nil(t, SelectBestDriver(nil, RankingContext{}))

	best := SelectBestDriver([]DriverCandidate{qualified("slow", 8, 4), qualified("close", 0.5, 4.7)}, RankingContext{})
	require.NotNil(t, best)
	assert.Equal(t, "close", string(best.DriverID))
	assert.Equal(t, 1, best.Rank)
}

func TestRankDrivers_EmptyInput(t *testing.T) {
	assert.Empty(t, RankDrivers(nil, RankingContext{}))
}
