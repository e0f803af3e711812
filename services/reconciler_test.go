package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-portfolio/models"
	"rent-portfolio/storage"
	"rent-portfolio/utils"
)

func newTestReconciler() *Reconciler {
	return NewReconciler(NewDefaultEncoder(), NewNormalizer(DefaultBrandPrefixes), utils.NewNopLogger())
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func scraped(id, name string, price *int, seen time.Time) models.UnitRecord {
	return models.UnitRecord{
		State:      "California",
		City:       "San Francisco",
		AptComplex: "Avalon Mission Bay",
		BlockID:    "1234",
		AptID:      id,
		AptName:    name,
		UnitNumber: name,
		BedCount:   models.IntPtr(1),
		Price:      price,
		FirstSeen:  seen,
		LastSeen:   seen,
	}
}

func TestMergeIntoEmptyPortfolio(t *testing.T) {
	r := newTestReconciler()
	run1 := day("2024-01-01")

	out, summary := r.Merge(&models.Portfolio{}, []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1500), run1),
		scraped("2", "APT 102", nil, run1),
	})

	require.Len(t, out.Units, 2)
	assert.Equal(t, models.MergeSummary{Inserted: 2, Total: 2}, summary)
	assert.Equal(t, 1, out.Units[0].Indicators["binary_california"])
	assert.Equal(t, 1, out.Units[0].Indicators["binary_San_Francisco"])
	assert.Equal(t, models.IntPtr(0), out.Units[0].DaysOnMarket)
}

func TestMergeFirstSeenInvariant(t *testing.T) {
	r := newTestReconciler()
	run1, run2 := day("2024-01-01"), day("2024-01-11")

	afterRun1, _ := r.Merge(&models.Portfolio{}, []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1500), run1),
	})
	afterRun2, summary := r.Merge(afterRun1, []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1450), run2),
	})

	require.Len(t, afterRun2.Units, 1)
	u := afterRun2.Units[0]
	assert.Equal(t, run1, u.FirstSeen)
	assert.Equal(t, run2, u.LastSeen)
	assert.Equal(t, models.IntPtr(1450), u.Price)
	assert.Equal(t, models.IntPtr(10), u.DaysOnMarket)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.Inserted)
}

func TestMergeUpdateLeavesOtherFieldsUntouched(t *testing.T) {
	r := newTestReconciler()
	persisted := scraped("1", "APT 101", models.IntPtr(1500), day("2024-01-01"))
	persisted.Sqft = models.IntPtr(700)
	persisted.AdjustedPrice = models.FloatPtr(1620.5)
	persisted.Indicators = map[string]int{"binary_california": 1}
	persisted.Extra = map[string]string{"notes": "corner unit"}

	incoming := scraped("1", "APT 101", models.IntPtr(1550), day("2024-02-01"))
	incoming.Sqft = models.IntPtr(999)
	incoming.WebURL = "https://example.com/changed"

	out, _ := r.Merge(&models.Portfolio{Units: []models.UnitRecord{persisted}}, []models.UnitRecord{incoming})

	u := out.Units[0]
	assert.Equal(t, models.IntPtr(700), u.Sqft)
	assert.Equal(t, "", u.WebURL)
	assert.Equal(t, models.FloatPtr(1620.5), u.AdjustedPrice)
	assert.Equal(t, map[string]int{"binary_california": 1}, u.Indicators)
	assert.Equal(t, "corner unit", u.Extra["notes"])
}

func TestMergeIdempotent(t *testing.T) {
	r := newTestReconciler()
	base, _ := r.Merge(&models.Portfolio{}, []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1500), day("2024-01-01")),
	})
	batch := []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1600), day("2024-01-05")),
		scraped("2", "APT 202", nil, day("2024-01-05")),
	}

	once, _ := r.Merge(base, batch)
	twice, _ := r.Merge(once, batch)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second merge changed the portfolio (-once +twice):\n%s", diff)
	}
	assert.Len(t, twice.Units, 2)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	r := newTestReconciler()
	persisted := &models.Portfolio{Units: []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1500), day("2024-01-01")),
	}}

	_, _ = r.Merge(persisted, []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1800), day("2024-01-09")),
		scraped("2", "APT 102", nil, day("2024-01-09")),
	})

	require.Len(t, persisted.Units, 1)
	assert.Equal(t, models.IntPtr(1500), persisted.Units[0].Price)
	assert.Equal(t, day("2024-01-01"), persisted.Units[0].LastSeen)
}

func TestMergeBatchDuplicatesLastWins(t *testing.T) {
	r := newTestReconciler()
	seen := day("2024-03-01")

	out, summary := r.Merge(&models.Portfolio{}, []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1500), seen),
		scraped("1", "APT 101", models.IntPtr(1575), seen),
	})

	require.Len(t, out.Units, 1)
	assert.Equal(t, models.IntPtr(1575), out.Units[0].Price)
	assert.Equal(t, 1, summary.BatchDuplicates)
}

func TestMergeRejectsInvalidRecords(t *testing.T) {
	r := newTestReconciler()
	seen := day("2024-03-01")

	noComplex := scraped("1", "APT 101", nil, seen)
	noComplex.AptComplex = ""
	noTimestamp := scraped("2", "APT 102", nil, time.Time{})

	out, summary := r.Merge(&models.Portfolio{}, []models.UnitRecord{
		noComplex,
		noTimestamp,
		scraped("3", "APT 103", nil, seen),
	})

	assert.Len(t, out.Units, 1)
	assert.Equal(t, 2, summary.Rejected)
	assert.Equal(t, 1, summary.Inserted)
}

func TestDaysOnMarket(t *testing.T) {
	assert.Equal(t, models.IntPtr(10), DaysOnMarket(day("2024-01-01"), day("2024-01-11")))
	assert.Equal(t, models.IntPtr(0), DaysOnMarket(day("2024-01-01"), day("2024-01-01").Add(23*time.Hour)))
	assert.Nil(t, DaysOnMarket(time.Time{}, day("2024-01-11")))
}

func TestMergeAcrossSavedPortfolioInLocalZone(t *testing.T) {
	r := newTestReconciler()
	eastern := time.FixedZone("EST", -5*60*60)
	run1 := time.Date(2024, 1, 1, 10, 0, 0, 0, eastern)
	run2 := time.Date(2024, 1, 2, 6, 0, 0, 0, eastern)

	afterRun1, _ := r.Merge(&models.Portfolio{}, []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1500), run1),
	})

	var buf bytes.Buffer
	cols := NewDefaultEncoder().Columns()
	require.NoError(t, storage.WritePortfolio(&buf, afterRun1, cols))
	reloaded, err := storage.ReadPortfolio(&buf, cols)
	require.NoError(t, err)

	afterRun2, _ := r.Merge(reloaded, []models.UnitRecord{
		scraped("1", "APT 101", models.IntPtr(1550), run2),
	})

	require.Len(t, afterRun2.Units, 1)
	u := afterRun2.Units[0]
	assert.True(t, u.FirstSeen.Equal(run1), "first_seen %v, want %v", u.FirstSeen, run1)
	assert.True(t, u.LastSeen.Equal(run2), "last_seen %v, want %v", u.LastSeen, run2)
	assert.Equal(t, models.IntPtr(0), u.DaysOnMarket, "20 hours elapsed")
}
