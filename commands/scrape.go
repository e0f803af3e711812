package commands

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rent-portfolio/models"
	"rent-portfolio/parser"
	"rent-portfolio/scraper"
	"rent-portfolio/storage"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrapes every property endpoint and merges the units into the portfolio CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.scrape(cmd.Context())
	},
}

func (a *app) scrape(ctx context.Context) error {
	run := &models.RunSummary{RunID: uuid.NewString(), StartedAt: time.Now()}
	a.logger.Info("=== Scrape run %s starting ===", run.RunID)
	a.logger.Info("Config: concurrency %d | retries %d | timeout %v | output %s",
		a.cfg.ConcurrencyLimit, a.cfg.RetryBound, a.cfg.RequestTimeout, a.cfg.OutputPath)

	props, err := storage.LoadProperties(a.cfg.InputPath, storage.PropertyColumns{
		Name:     a.cfg.PropertyNameColumn,
		Endpoint: a.cfg.EndpointColumn,
	}, a.logger)
	if err != nil {
		return err
	}

	persisted := a.portfolio.LoadOrEmpty()

	var fetcher scraper.Fetcher = scraper.NewHTTPFetcher(a.cfg, a.logger)
	if a.cfg.BrowserFallback {
		browser := scraper.NewBrowserFetcher(a.cfg.ChromeBin, 2*a.cfg.RequestTimeout, a.logger)
		fetcher = scraper.NewFallbackFetcher(fetcher, browser, a.logger)
	}
	s := scraper.New(a.cfg, fetcher, parser.NewParser(a.logger, a.cfg.UnitPrefixes), a.logger)

	results := s.Scrape(ctx, props, run.StartedAt)
	batch := scraper.Collect(results, run)
	if len(batch) == 0 {
		a.logger.Error("No units were scraped, leaving %s untouched", a.cfg.OutputPath)
		a.insights.PrintMerge(os.Stdout, run)
		return nil
	}

	merged, summary := a.reconciler.Merge(persisted, batch)
	run.Merge = summary

	if err := a.portfolio.Save(merged); err != nil {
		return err
	}

	if a.cfg.MirrorDriver != "" {
		a.mirror(ctx, run, merged)
	}

	a.insights.PrintMerge(os.Stdout, run)
	a.insights.Print(os.Stdout, a.insights.Generate(merged.Units))
	return nil
}

// mirror copies the run into the SQL mirror. Failures are logged only; the
// CSV has already been written.
func (a *app) mirror(ctx context.Context, run *models.RunSummary, p *models.Portfolio) {
	var rec storage.RunRecorder
	rec, err := storage.OpenMirror(ctx, a.cfg.MirrorDriver, a.cfg.MirrorDSN, a.logger)
	if err != nil {
		a.logger.Error("[mirror] %v", err)
		return
	}
	defer rec.Close()

	if err := rec.RecordRun(ctx, run); err != nil {
		a.logger.Error("[mirror] %v", err)
		return
	}
	if err := rec.UpsertUnits(ctx, run.RunID, p.Units); err != nil {
		a.logger.Error("[mirror] %v", err)
	}
}
