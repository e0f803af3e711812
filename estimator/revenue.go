package estimator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"rent-portfolio/models"
	"rent-portfolio/services"
	"rent-portfolio/utils"
)

// RentPredictor predicts a monthly rent for one feature vector.
type RentPredictor interface {
	PredictRent(x []float64) float64
}

// bedGroup holds the state-level statistics for one bedroom count.
type bedGroup struct {
	bed   int
	count int
	bath  float64
	sqft  float64
	floor float64
}

// StateStats is the observed bedroom mix and per-bedroom averages of the
// priced units in each state.
type StateStats struct {
	totals map[string]int
	groups map[string][]bedGroup
}

// NewStateStats aggregates priced units by state and bedroom count. State
// totals include priced units with no bedroom count, so such a state's mix
// sums to less than one.
func NewStateStats(units []models.UnitRecord) *StateStats {
	type acc struct {
		count                int
		bath, sqft, floor    float64
		nBath, nSqft, nFloor int
	}
	totals := make(map[string]int)
	byBed := make(map[string]map[int]*acc)

	for i := range units {
		u := &units[i]
		if u.Price == nil {
			continue
		}
		state := stateKey(u.State)
		totals[state]++
		if u.BedCount == nil {
			continue
		}
		if byBed[state] == nil {
			byBed[state] = make(map[int]*acc)
		}
		a := byBed[state][*u.BedCount]
		if a == nil {
			a = &acc{}
			byBed[state][*u.BedCount] = a
		}
		a.count++
		if u.BathCount != nil {
			a.bath += float64(*u.BathCount)
			a.nBath++
		}
		if u.Sqft != nil {
			a.sqft += float64(*u.Sqft)
			a.nSqft++
		}
		if f := FloorValue(u.Floor); !math.IsNaN(f) {
			a.floor += f
			a.nFloor++
		}
	}

	stats := &StateStats{totals: totals, groups: make(map[string][]bedGroup, len(byBed))}
	for state, beds := range byBed {
		groups := make([]bedGroup, 0, len(beds))
		for bed, a := range beds {
			groups = append(groups, bedGroup{
				bed:   bed,
				count: a.count,
				bath:  ratio(a.bath, a.nBath),
				sqft:  ratio(a.sqft, a.nSqft),
				floor: ratio(a.floor, a.nFloor),
			})
		}
		sort.Slice(groups, func(i, j int) bool { return groups[i].bed < groups[j].bed })
		stats.groups[state] = groups
	}
	return stats
}

// Mix returns the share of each bedroom count among the state's priced
// units.
func (s *StateStats) Mix(state string) map[int]float64 {
	key := stateKey(state)
	out := make(map[int]float64)
	for _, g := range s.groups[key] {
		out[g.bed] = float64(g.count) / float64(s.totals[key])
	}
	return out
}

// RevenueEstimator apportions a target property's units by its state's
// bedroom mix and prices each unit type with a RentPredictor. The result is
// a best-effort figure with no confidence interval.
type RevenueEstimator struct {
	space     *FeatureSpace
	encoder   *services.Encoder
	predictor RentPredictor
	logger    *utils.Logger
}

func NewRevenueEstimator(space *FeatureSpace, encoder *services.Encoder, predictor RentPredictor, logger *utils.Logger) *RevenueEstimator {
	return &RevenueEstimator{space: space, encoder: encoder, predictor: predictor, logger: logger}
}

var decimalCtx = apd.BaseContext.WithPrecision(34)

// Estimate fills the revenue fields of every target it can price and
// returns the targets sorted by annual revenue, highest first. Targets in a
// state with no priced units are left unestimated and sorted last.
func (r *RevenueEstimator) Estimate(targets []models.RevenueTarget, stats *StateStats) ([]models.RevenueTarget, error) {
	out := make([]models.RevenueTarget, len(targets))
	copy(out, targets)

	for i := range out {
		t := &out[i]
		groups := stats.groups[stateKey(t.State)]
		if len(groups) == 0 {
			r.logger.Warn("[revenue] no priced units in %q, skipping %s", t.State, t.Name)
			continue
		}
		if err := r.estimateOne(t, groups, stats.totals[stateKey(t.State)]); err != nil {
			return nil, fmt.Errorf("revenue: %s: %w", t.Name, err)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Estimated != out[j].Estimated {
			return out[i].Estimated
		}
		return out[i].AnnualRevenue > out[j].AnnualRevenue
	})
	return out, nil
}

func (r *RevenueEstimator) estimateOne(t *models.RevenueTarget, groups []bedGroup, stateTotal int) error {
	indicators := r.encoder.Encode(t.State, t.City)
	total := new(apd.Decimal)

	for _, g := range groups {
		share := float64(g.count) / float64(stateTotal)
		units := int64(math.RoundToEven(float64(t.UnitCount) * share))
		if units == 0 {
			continue
		}

		rent := r.predictor.PredictRent(r.space.Compose(float64(g.bed), g.bath, g.sqft, g.floor, indicators))
		rentDec, err := new(apd.Decimal).SetFloat64(rent)
		if err != nil {
			return fmt.Errorf("convert rent %v: %w", rent, err)
		}

		line := new(apd.Decimal)
		if _, err := decimalCtx.Mul(line, rentDec, apd.New(units, 0)); err != nil {
			return err
		}
		if _, err := decimalCtx.Add(total, total, line); err != nil {
			return err
		}
	}

	avg := new(apd.Decimal)
	if t.UnitCount > 0 {
		if _, err := decimalCtx.Quo(avg, total, apd.New(int64(t.UnitCount), 0)); err != nil {
			return err
		}
	}
	annual := new(apd.Decimal)
	if _, err := decimalCtx.Mul(annual, total, apd.New(12, 0)); err != nil {
		return err
	}

	var err error
	if t.MonthlyRevenue, err = total.Float64(); err != nil {
		return err
	}
	if t.AvgRent, err = avg.Float64(); err != nil {
		return err
	}
	if t.AnnualRevenue, err = annual.Float64(); err != nil {
		return err
	}
	t.Estimated = true
	return nil
}

func stateKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ratio returns sum/n, or NaN when there were no values.
func ratio(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
