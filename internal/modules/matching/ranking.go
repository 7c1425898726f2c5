// README: Predictive ranking: weighted driver score with priority and rush-hour bonuses.
package matching

import (
	"math"
	"sort"
)

const (
	baseScore = 100.0

	highPriorityBonus     = 20.0
	highPriorityMinRating = 4.5
	rushHourBonus         = 15.0
	rushHourMaxDistanceKm = 2.0
)

// Weights of each normalised term. Every term is on a 0..100 scale.
type Weights struct {
	Distance    float64
	Rating      float64
	Experience  float64
	Acceptance  float64
	PickupSpeed float64
}

func DefaultWeights() Weights {
	return Weights{
		Distance:    0.40,
		Rating:      0.25,
		Experience:  0.15,
		Acceptance:  0.10,
		PickupSpeed: 0.10,
	}
}

// DefaultRushHours are local hours where short pickups are favoured.
var DefaultRushHours = []int{7, 8, 9, 17, 18, 19}

type Ranker struct {
	Weights     Weights
	Defaults    CandidateDefaults
	AvgSpeedKmh float64
	RushHours   []int
}

// NewRanker returns a ranker with production weights and defaults.
func NewRanker() Ranker {
	return Ranker{
		Weights:     DefaultWeights(),
		Defaults:    RankingDefaults(),
		AvgSpeedKmh: DefaultAvgSpeedKmh,
		RushHours:   DefaultRushHours,
	}
}

func (r Ranker) isRushHour(hour int) bool {
	for _, h := range r.RushHours {
		if h == hour {
			return true
		}
	}
	return false
}

// Score computes the rounded predicted score of one candidate.
func (r Ranker) Score(c DriverCandidate, ctx RankingContext) int {
	d := r.Defaults.Resolve(c)
	w := r.Weights

	distance := math.Max(0, 100-d.DistanceKm*10)
	rating := d.Rating / 5 * 100
	experience := math.Min(100, float64(d.TotalRides)/100*100)
	acceptance := d.AcceptanceRate * 100
	pickup := math.Max(0, 100-d.AvgPickupMinutes*5)

	score := baseScore +
		distance*w.Distance +
		rating*w.Rating +
		experience*w.Experience +
		acceptance*w.Acceptance +
		pickup*w.PickupSpeed

	if ctx.Priority == PriorityHigh && d.Rating >= highPriorityMinRating {
		score += highPriorityBonus
	}
	if r.isRushHour(ctx.TimeOfDay) && d.DistanceKm < rushHourMaxDistanceKm {
		score += rushHourBonus
	}
	return int(math.Round(score))
}

// Rank scores every candidate and orders them by descending score. Equal
// scores keep input order. Ranks are 1..N without gaps.
func (r Ranker) Rank(drivers []DriverCandidate, ctx RankingContext) []RankedDriver {
	out := make([]RankedDriver, len(drivers))
	for i, c := range drivers {
		eta, err := CalculateETA(c.DistanceKm, r.AvgSpeedKmh)
		if err != nil {
			eta = 0
		}
		out[i] = RankedDriver{
			DriverCandidate:  c,
			PredictedScore:   r.Score(c, ctx),
			EstimatedArrival: eta,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PredictedScore > out[j].PredictedScore
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// SelectBest returns the rank 1 driver, or nil when there are no candidates.
func (r Ranker) SelectBest(drivers []DriverCandidate, ctx RankingContext) *RankedDriver {
	ranked := r.Rank(drivers, ctx)
	if len(ranked) == 0 {
		return nil
	}
	return &ranked[0]
}

// RankDrivers ranks with the default ranker.
func RankDrivers(drivers []DriverCandidate, ctx RankingContext) []RankedDriver {
	return NewRanker().Rank(drivers, ctx)
}

// SelectBestDriver picks with the default ranker.
func SelectBestDriver(drivers []DriverCandidate, ctx RankingContext) *RankedDriver {
	return NewRanker().SelectBest(drivers, ctx)
}
