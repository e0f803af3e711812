package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"rent-portfolio/models"
	"rent-portfolio/utils"
)

//go:embed schema/postgres.sql
var postgresSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// ErrUnknownDriver is returned for mirror drivers other than postgres and
// sqlite.
var ErrUnknownDriver = errors.New("mirror: unknown driver")

const upsertBatchSize = 50

var unitColumns = []string{
	"apt_complex", "apt_name", "apt_id", "state", "city", "block_id", "unit_number",
	"bed_count", "bath_count", "sqft", "floor", "floor_plan_id", "web_url",
	"price", "adjusted_price", "first_seen", "last_seen", "days_on_market", "last_run_id",
}

// Columns refreshed when a unit already exists. first_seen is never touched.
var refreshedColumns = []string{"price", "adjusted_price", "last_seen", "days_on_market", "last_run_id"}

type dialect struct {
	driver string
	schema string
	// placeholder returns the bind marker for the n-th (1-based) argument.
	placeholder func(n int) string
}

var dialects = map[string]dialect{
	"postgres": {driver: "postgres", schema: postgresSchema, placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }},
	"sqlite":   {driver: "sqlite", schema: sqliteSchema, placeholder: func(int) string { return "?" }},
}

// Mirror copies the portfolio into a SQL database after each scrape. The
// CSV stays the system of record; the mirror is for ad-hoc querying.
type Mirror struct {
	db      *sql.DB
	dialect dialect
	logger  *utils.Logger
}

// OpenMirror connects to the database, waiting for it to accept
// connections, and applies the schema.
func OpenMirror(ctx context.Context, driver, dsn string, logger *utils.Logger) (*Mirror, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("mirror: open: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, Delay: 2 * time.Second, Logger: logger}
	if err := retry.Do(ctx, "mirror ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mirror: %w", err)
	}

	m := &Mirror{db: db, dialect: d, logger: logger}
	if err := m.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// NewMirror wraps an already-open database.
func NewMirror(db *sql.DB, driver string, logger *utils.Logger) (*Mirror, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	return &Mirror{db: db, dialect: d, logger: logger}, nil
}

// Migrate creates the tables if they do not exist. Statements run one at a
// time since not every driver accepts several per Exec.
func (m *Mirror) Migrate(ctx context.Context) error {
	for _, stmt := range splitStatements(m.dialect.schema) {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("mirror: migrate: %w", err)
		}
	}
	return nil
}

// RecordRun stores one scrape run.
func (m *Mirror) RecordRun(ctx context.Context, run *models.RunSummary) error {
	cols := []string{"run_id", "started_at", "properties", "succeeded", "failed", "inserted", "updated", "rejected", "total_units"}
	query := fmt.Sprintf("INSERT INTO scrape_runs (%s) VALUES (%s)",
		strings.Join(cols, ", "), m.placeholders(0, len(cols)))

	_, err := m.db.ExecContext(ctx, query,
		run.RunID, run.StartedAt, run.Properties, run.Succeeded, len(run.Failed),
		run.Merge.Inserted, run.Merge.Updated, run.Merge.Rejected, run.Merge.Total)
	if err != nil {
		return fmt.Errorf("mirror: record run: %w", err)
	}
	return nil
}

// UpsertUnits writes units keyed by identity key inside one transaction.
// Repeated keys collapse to their last occurrence.
func (m *Mirror) UpsertUnits(ctx context.Context, runID string, units []models.UnitRecord) error {
	units = lastByKey(units)
	if len(units) == 0 {
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mirror: begin: %w", err)
	}

	for i := 0; i < len(units); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(units) {
			end = len(units)
		}
		if err := m.upsertBatch(ctx, tx, runID, units[i:end]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mirror: commit: %w", err)
	}
	m.logger.Info("[mirror] Upserted %d units for run %s", len(units), runID)
	return nil
}

func (m *Mirror) upsertBatch(ctx context.Context, tx *sql.Tx, runID string, batch []models.UnitRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*len(unitColumns))

	for idx, u := range batch {
		valueStrings = append(valueStrings, "("+m.placeholders(idx*len(unitColumns), len(unitColumns))+")")
		valueArgs = append(valueArgs,
			u.AptComplex, u.AptName, u.AptID, u.State, u.City, u.BlockID, u.UnitNumber,
			nullInt(u.BedCount), nullInt(u.BathCount), nullInt(u.Sqft), u.Floor, u.FloorPlanID, u.WebURL,
			nullInt(u.Price), nullFloat(u.AdjustedPrice), nullTime(u.FirstSeen), nullTime(u.LastSeen),
			nullInt(u.DaysOnMarket), runID)
	}

	updates := make([]string, len(refreshedColumns))
	for i, c := range refreshedColumns {
		updates[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}

	query := fmt.Sprintf(`
		INSERT INTO portfolio_units (%s)
		VALUES %s
		ON CONFLICT (apt_complex, apt_name, apt_id) DO UPDATE SET %s
	`, strings.Join(unitColumns, ", "), strings.Join(valueStrings, ","), strings.Join(updates, ", "))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("mirror: upsert batch: %w", err)
	}
	return nil
}

// CountUnits returns how many units the mirror holds.
func (m *Mirror) CountUnits(ctx context.Context) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM portfolio_units").Scan(&n); err != nil {
		return 0, fmt.Errorf("mirror: count units: %w", err)
	}
	return n, nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

// placeholders returns n comma-separated bind markers numbered from
// offset+1.
func (m *Mirror) placeholders(offset, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = m.dialect.placeholder(offset + i + 1)
	}
	return strings.Join(marks, ",")
}

func splitStatements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func lastByKey(units []models.UnitRecord) []models.UnitRecord {
	pos := make(map[models.IdentityKey]int, len(units))
	out := make([]models.UnitRecord, 0, len(units))
	for _, u := range units {
		if i, ok := pos[u.Key()]; ok {
			out[i] = u
			continue
		}
		pos[u.Key()] = len(out)
		out = append(out, u)
	}
	return out
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
