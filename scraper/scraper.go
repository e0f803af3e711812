package scraper

import (
	"context"
	"fmt"
	"time"

	"rent-portfolio/config"
	"rent-portfolio/models"
	"rent-portfolio/parser"
	"rent-portfolio/utils"
)

// PropertyResult is the outcome of scraping one property.
type PropertyResult struct {
	Property models.Property
	Schema   parser.Schema
	Units    []models.UnitRecord
	Skipped  int
	Err      error
}

// Failed reports whether the property yielded nothing usable.
func (r *PropertyResult) Failed() bool {
	return r.Err != nil || len(r.Units) == 0
}

// Scraper fetches and parses every property on a bounded worker pool.
type Scraper struct {
	cfg     *config.Config
	fetcher Fetcher
	parser  *parser.Parser
	logger  *utils.Logger
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, fetcher Fetcher, p *parser.Parser, logger *utils.Logger) *Scraper {
	return &Scraper{cfg: cfg, fetcher: fetcher, parser: p, logger: logger}
}

// Scrape fetches all properties concurrently. results[i] always belongs to
// props[i] regardless of completion order. Every unit is stamped with runAt,
// in UTC, as both first and last sighting.
func (s *Scraper) Scrape(ctx context.Context, props []models.Property, runAt time.Time) []PropertyResult {
	s.logger.Info("[scraper] Scraping %d properties with %d workers", len(props), s.cfg.ConcurrencyLimit)

	runAt = runAt.UTC().Truncate(time.Second)
	results := make([]PropertyResult, len(props))
	pool := utils.NewWorkerPool(s.cfg.ConcurrencyLimit, s.cfg.RateLimitMs)

	for i := range props {
		i := i
		pool.Submit(func() {
			results[i] = s.scrapeOne(ctx, props[i], runAt)
		})
	}
	pool.Wait()

	return results
}

func (s *Scraper) scrapeOne(ctx context.Context, prop models.Property, runAt time.Time) PropertyResult {
	res := PropertyResult{Property: prop}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	raw, err := s.fetcher.Fetch(ctx, prop.Endpoint)
	if err != nil {
		s.logger.Error("[scraper] %s (%s, %s): %v", prop.Name, prop.City, prop.State, err)
		res.Err = err
		return res
	}

	parsed := s.parser.Parse(raw, parser.Source{
		State:        prop.State,
		City:         prop.City,
		PropertyName: prop.Name,
		BlockID:      prop.BlockID,
		Endpoint:     prop.Endpoint,
	})
	for i := range parsed.Units {
		parsed.Units[i].FirstSeen = runAt
		parsed.Units[i].LastSeen = runAt
	}

	res.Schema = parsed.Schema
	res.Units = parsed.Units
	res.Skipped = parsed.Skipped
	if len(res.Units) == 0 {
		s.logger.Warn("[scraper] %s (%s, %s): no units found", prop.Name, prop.City, prop.State)
	} else {
		s.logger.Info("[scraper] %s (%s, %s): %d units", prop.Name, prop.City, prop.State, len(res.Units))
	}
	return res
}

// Collect flattens results into one batch and fills the scrape fields of
// the run summary.
func Collect(results []PropertyResult, run *models.RunSummary) []models.UnitRecord {
	var batch []models.UnitRecord
	run.Properties = len(results)
	for i := range results {
		r := &results[i]
		run.ParseSkippedUnit += r.Skipped
		if r.Failed() {
			run.Failed = append(run.Failed, failedLabel(r))
			continue
		}
		run.Succeeded++
		batch = append(batch, r.Units...)
	}
	run.UnitsScraped = len(batch)
	return batch
}

func failedLabel(r *PropertyResult) string {
	name := r.Property.Name
	if name == "" {
		name = r.Property.BlockID
	}
	return fmt.Sprintf("%s (%s, %s)", name, r.Property.City, r.Property.State)
}
