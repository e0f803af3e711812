package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-portfolio/models"
	"rent-portfolio/parser"
	"rent-portfolio/utils"
)

const okPayload = `{"data": {
  "asset": {"name": "Avalon Domain"},
  "floor_plans": [{"id": 1, "bedroom_count": 1, "bathroom_count": 1}],
  "floors": [{"id": 9, "filter_short_label": "2"}],
  "units": [
    {"id": 11, "unit_number": "201", "display_unit_number": "APT 201", "floor_plan_id": 1, "floor_id": 9, "area": 700},
    {"id": 12, "unit_number": "202", "display_unit_number": "APT 202", "floor_plan_id": 1, "floor_id": 9, "area": 710}
  ]
}}`

func TestScrapeKeysResultsByProperty(t *testing.T) {
	props := []models.Property{
		{State: "Texas", City: "Austin", Name: "Domain", Endpoint: "https://api/1", BlockID: "1"},
		{State: "Texas", City: "Austin", Name: "Broken", Endpoint: "https://api/2", BlockID: "2"},
		{State: "Texas", City: "Austin", Name: "Empty", Endpoint: "https://api/3", BlockID: "3"},
	}
	fetcher := &stubFetcher{
		bodies: map[string]string{"https://api/1": okPayload, "https://api/3": `{"data": {"floors": []}}`},
		errs:   map[string]error{"https://api/2": errors.New("connection reset")},
	}
	s := New(testConfig(), fetcher, parser.NewParser(utils.NewNopLogger(), nil), utils.NewNopLogger())

	runAt := time.Date(2024, 1, 11, 10, 0, 0, 500, time.UTC)
	results := s.Scrape(context.Background(), props, runAt)

	require.Len(t, results, 3)
	assert.Equal(t, "Domain", results[0].Property.Name)
	require.Len(t, results[0].Units, 2)
	u := results[0].Units[0]
	assert.Equal(t, "Avalon Domain", u.AptComplex)
	assert.Equal(t, "1", u.BlockID)
	assert.Equal(t, runAt.Truncate(time.Second), u.FirstSeen)
	assert.Equal(t, u.FirstSeen, u.LastSeen)

	assert.EqualError(t, results[1].Err, "connection reset")
	assert.True(t, results[2].Failed())

	run := &models.RunSummary{}
	batch := Collect(results, run)
	assert.Len(t, batch, 2)
	assert.Equal(t, 3, run.Properties)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, []string{"Broken (Austin, Texas)", "Empty (Austin, Texas)"}, run.Failed)
	assert.Equal(t, 2, run.UnitsScraped)
}

func TestScrapeStampsUTC(t *testing.T) {
	props := []models.Property{{State: "Texas", City: "Austin", Name: "Domain", Endpoint: "https://api/1", BlockID: "1"}}
	fetcher := &stubFetcher{bodies: map[string]string{"https://api/1": okPayload}}
	s := New(testConfig(), fetcher, parser.NewParser(utils.NewNopLogger(), nil), utils.NewNopLogger())

	central := time.FixedZone("CST", -6*60*60)
	runAt := time.Date(2024, 1, 11, 22, 15, 30, 900, central)
	results := s.Scrape(context.Background(), props, runAt)

	require.Len(t, results[0].Units, 2)
	u := results[0].Units[0]
	assert.Equal(t, time.UTC, u.FirstSeen.Location())
	assert.Equal(t, time.Date(2024, 1, 12, 4, 15, 30, 0, time.UTC), u.FirstSeen)
}

func TestScrapeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &stubFetcher{bodies: map[string]string{"https://api/1": okPayload}}
	s := New(testConfig(), fetcher, parser.NewParser(utils.NewNopLogger(), nil), utils.NewNopLogger())

	results := s.Scrape(ctx, []models.Property{{Endpoint: "https://api/1"}}, time.Now())

	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Zero(t, fetcher.calls)
}
