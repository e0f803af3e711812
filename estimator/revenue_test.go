package estimator

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-portfolio/models"
	"rent-portfolio/services"
	"rent-portfolio/utils"
)

// bedRent prices a feature vector by its bedroom count only.
type bedRent map[int]float64

func (b bedRent) PredictRent(x []float64) float64 {
	return b[int(x[0])]
}

func mixUnits(state string, beds map[int]int) []models.UnitRecord {
	var units []models.UnitRecord
	for bed, n := range beds {
		for i := 0; i < n; i++ {
			units = append(units, models.UnitRecord{
				State:      state,
				AptComplex: "Avalon " + state,
				AptID:      strconv.Itoa(bed) + "-" + strconv.Itoa(i),
				BedCount:   models.IntPtr(bed),
				BathCount:  models.IntPtr(1),
				Sqft:       models.IntPtr(600 + 200*bed),
				Floor:      "3",
				Price:      models.IntPtr(1000),
			})
		}
	}
	return units
}

func newRevenueEstimator(p RentPredictor) *RevenueEstimator {
	enc := services.NewDefaultEncoder()
	return NewRevenueEstimator(NewFeatureSpace(enc), enc, p, utils.NewNopLogger())
}

func TestRevenueApportionment(t *testing.T) {
	stats := NewStateStats(mixUnits("California", map[int]int{0: 20, 1: 50, 2: 30}))
	rev := newRevenueEstimator(bedRent{0: 1500, 1: 1800, 2: 2200})

	out, err := rev.Estimate([]models.RevenueTarget{
		{State: "California", City: "San Jose", Name: "Avalon Willow Glen", UnitCount: 100},
	}, stats)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.True(t, out[0].Estimated)
	assert.InDelta(t, 186000, out[0].MonthlyRevenue, 1e-6)
	assert.InDelta(t, 1860, out[0].AvgRent, 1e-6)
	assert.InDelta(t, 2232000, out[0].AnnualRevenue, 1e-6)
}

func TestRevenueMix(t *testing.T) {
	units := mixUnits("Texas", map[int]int{1: 3, 2: 1})
	units = append(units, models.UnitRecord{State: "Texas", AptComplex: "x", AptID: "nobed", Price: models.IntPtr(900)})
	units = append(units, models.UnitRecord{State: "Texas", AptComplex: "x", AptID: "unpriced", BedCount: models.IntPtr(3)})

	mix := NewStateStats(units).Mix("texas")

	assert.Equal(t, map[int]float64{1: 0.6, 2: 0.2}, mix)
}

func TestRevenueRoundsHalfToEven(t *testing.T) {
	// 50/50 mix on 5 units: 2.5 rounds to 2 for each type.
	stats := NewStateStats(mixUnits("Colorado", map[int]int{1: 1, 2: 1}))
	rev := newRevenueEstimator(bedRent{1: 1000, 2: 2000})

	out, err := rev.Estimate([]models.RevenueTarget{{State: "Colorado", Name: "Avalon Denver", UnitCount: 5}}, stats)
	require.NoError(t, err)

	assert.InDelta(t, 6000, out[0].MonthlyRevenue, 1e-6)
	assert.InDelta(t, 1200, out[0].AvgRent, 1e-6)
}

func TestRevenueSortsAndSkipsUnknownStates(t *testing.T) {
	units := append(mixUnits("Texas", map[int]int{1: 10}), mixUnits("Florida", map[int]int{2: 10})...)
	stats := NewStateStats(units)
	rev := newRevenueEstimator(bedRent{1: 1000, 2: 3000})

	out, err := rev.Estimate([]models.RevenueTarget{
		{State: "Ohio", Name: "Nowhere", UnitCount: 200},
		{State: "Texas", Name: "Small", UnitCount: 10},
		{State: "Florida", Name: "Big", UnitCount: 10},
	}, stats)
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"Big", "Small", "Nowhere"}, []string{out[0].Name, out[1].Name, out[2].Name})
	assert.False(t, out[2].Estimated)
	assert.Zero(t, out[2].AnnualRevenue)
}
