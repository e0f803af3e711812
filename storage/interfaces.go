package storage

import (
	"context"

	"rent-portfolio/models"
)

// PortfolioRepository is the interface any portfolio backend must satisfy.
type PortfolioRepository interface {
	Load() (*models.Portfolio, error)
	Save(p *models.Portfolio) error
}

// RunRecorder is the interface for secondary stores that keep a copy of
// each scrape run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.RunSummary) error
	UpsertUnits(ctx context.Context, runID string, units []models.UnitRecord) error
	Close() error
}

var (
	_ PortfolioRepository = (*PortfolioStore)(nil)
	_ RunRecorder         = (*Mirror)(nil)
)
