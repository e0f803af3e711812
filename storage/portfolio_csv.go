package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rent-portfolio/models"
	"rent-portfolio/utils"
)

// ErrNoPortfolio is returned when the portfolio file does not exist yet.
var ErrNoPortfolio = errors.New("storage: no persisted portfolio")

// PortfolioColumns are the modelled columns in the order they are written.
// Indicator columns follow, then any columns carried through from disk.
var PortfolioColumns = []string{
	"state", "city", "apt_complex", "block_id", "apt_id", "apt_name",
	"bed_count", "bath_count", "sqft", "floor", "floor_plan_id", "unit_number",
	"web_url", "price", "adjusted_price", "first_seen", "last_seen", "days_on_market",
}

// legacyScrapedColumn is the single timestamp column of older portfolio
// files. It becomes first_seen and last_seen on read.
const legacyScrapedColumn = "date_scraped"

var timestampLayouts = []string{models.TimestampLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// PortfolioStore reads and writes the portfolio CSV.
type PortfolioStore struct {
	path          string
	indicatorCols []string
	logger        *utils.Logger
}

// NewPortfolioStore creates a store for the CSV at path. indicatorCols fixes
// the order of the binary_* columns on write.
func NewPortfolioStore(path string, indicatorCols []string, logger *utils.Logger) *PortfolioStore {
	return &PortfolioStore{path: path, indicatorCols: indicatorCols, logger: logger}
}

// Path returns the file the store reads and writes.
func (s *PortfolioStore) Path() string {
	return s.path
}

// Load reads the portfolio. A missing file yields ErrNoPortfolio.
func (s *PortfolioStore) Load() (*models.Portfolio, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoPortfolio
	}
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", s.path, err)
	}
	defer f.Close()

	p, err := ReadPortfolio(f, s.indicatorCols)
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", s.path, err)
	}
	return p, nil
}

// LoadOrEmpty reads the portfolio, starting a fresh one when the file is
// missing or unreadable.
func (s *PortfolioStore) LoadOrEmpty() *models.Portfolio {
	p, err := s.Load()
	switch {
	case errors.Is(err, ErrNoPortfolio):
		s.logger.Info("[storage] No existing portfolio at %s, starting a new one", s.path)
		return &models.Portfolio{}
	case err != nil:
		s.logger.Warn("[storage] Could not read portfolio, starting a new one: %v", err)
		return &models.Portfolio{}
	}
	s.logger.Info("[storage] Loaded %d units from %s", p.Len(), s.path)
	return p
}

// Save writes the portfolio through a temporary file in the same directory
// and renames it into place.
func (s *PortfolioStore) Save(p *models.Portfolio) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".portfolio-*.csv")
	if err != nil {
		return fmt.Errorf("csv: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WritePortfolio(tmp, p, s.indicatorCols); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("csv: replace %q: %w", s.path, err)
	}
	s.logger.Info("[storage] Wrote %d units to %s", p.Len(), s.path)
	return nil
}

// ReadPortfolio parses a portfolio CSV. Columns listed in indicatorCols are
// read as indicators; other unknown columns are kept in Extra. Blank rows
// are dropped.
func ReadPortfolio(r io.Reader, indicatorCols []string) (*models.Portfolio, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &models.Portfolio{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	known := make(map[string]bool, len(PortfolioColumns))
	for _, c := range PortfolioColumns {
		known[c] = true
	}
	indicator := make(map[string]bool, len(indicatorCols))
	for _, c := range indicatorCols {
		indicator[c] = true
	}

	p := &models.Portfolio{}
	_, hasFirstSeen := indexOf(header, "first_seen")
	legacy := false
	for _, col := range header {
		switch {
		case col == legacyScrapedColumn && !hasFirstSeen:
			legacy = true
		case known[col], indicator[col], col == "":
		default:
			p.ExtraColumns = append(p.ExtraColumns, col)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blankRecord(rec) {
			continue
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		if legacy {
			row["first_seen"] = row[legacyScrapedColumn]
			row["last_seen"] = row[legacyScrapedColumn]
		}
		p.Units = append(p.Units, unitFromRow(row, indicatorCols, p.ExtraColumns))
	}
	return p, nil
}

func unitFromRow(row map[string]string, indicatorCols, extraCols []string) models.UnitRecord {
	u := models.UnitRecord{
		State:         row["state"],
		City:          row["city"],
		AptComplex:    row["apt_complex"],
		BlockID:       row["block_id"],
		AptID:         row["apt_id"],
		AptName:       row["apt_name"],
		BedCount:      parseOptionalInt(row["bed_count"]),
		BathCount:     parseOptionalInt(row["bath_count"]),
		Sqft:          parseOptionalInt(row["sqft"]),
		Floor:         row["floor"],
		FloorPlanID:   row["floor_plan_id"],
		UnitNumber:    row["unit_number"],
		WebURL:        row["web_url"],
		Price:         parseOptionalInt(row["price"]),
		AdjustedPrice: parseOptionalFloat(row["adjusted_price"]),
		FirstSeen:     parseTimestamp(row["first_seen"]),
		LastSeen:      parseTimestamp(row["last_seen"]),
		DaysOnMarket:  parseOptionalInt(row["days_on_market"]),
	}

	for _, col := range indicatorCols {
		v, ok := row[col]
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if u.Indicators == nil {
			u.Indicators = make(map[string]int, len(indicatorCols))
		}
		if n := parseOptionalInt(v); n != nil {
			u.Indicators[col] = *n
		}
	}

	for _, col := range extraCols {
		if v := row[col]; v != "" {
			if u.Extra == nil {
				u.Extra = make(map[string]string, len(extraCols))
			}
			u.Extra[col] = v
		}
	}
	return u
}

// WritePortfolio writes the portfolio with a header row. Units that were
// never encoded get empty indicator cells.
func WritePortfolio(w io.Writer, p *models.Portfolio, indicatorCols []string) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(PortfolioColumns)+len(indicatorCols)+len(p.ExtraColumns))
	header = append(header, PortfolioColumns...)
	header = append(header, indicatorCols...)
	header = append(header, p.ExtraColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for i := range p.Units {
		if err := cw.Write(unitRow(&p.Units[i], indicatorCols, p.ExtraColumns)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func unitRow(u *models.UnitRecord, indicatorCols, extraCols []string) []string {
	row := []string{
		u.State,
		u.City,
		u.AptComplex,
		u.BlockID,
		u.AptID,
		u.AptName,
		formatOptionalInt(u.BedCount),
		formatOptionalInt(u.BathCount),
		formatOptionalInt(u.Sqft),
		u.Floor,
		u.FloorPlanID,
		u.UnitNumber,
		u.WebURL,
		formatOptionalInt(u.Price),
		formatOptionalFloat(u.AdjustedPrice),
		formatTimestamp(u.FirstSeen),
		formatTimestamp(u.LastSeen),
		formatOptionalInt(u.DaysOnMarket),
	}
	for _, col := range indicatorCols {
		if u.Indicators == nil {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.Itoa(u.Indicators[col]))
	}
	for _, col := range extraCols {
		row = append(row, u.Extra[col])
	}
	return row
}

// parseOptionalInt accepts "12" and the "12.0" form spreadsheet tools write
// for integer columns with gaps. Anything else, including values that do not
// fit in 32 bits, is absent.
func parseOptionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n, ok := utils.TruncateInt(f)
	if !ok {
		return nil
	}
	return &n
}

func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// formatTimestamp writes t as UTC wall-clock time; the layout carries no
// zone and parseTimestamp reads it back as UTC.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(models.TimestampLayout)
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func indexOf(header []string, col string) (int, bool) {
	for i, c := range header {
		if c == col {
			return i, true
		}
	}
	return -1, false
}
