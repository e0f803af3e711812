package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"rent-portfolio/models"
)

// Revenue output columns added to the targets file.
const (
	ColAvgRent        = "avg_rent"
	ColMonthlyRevenue = "monthly_revenue"
	ColAnnualRevenue  = "annual_revenue"
)

var targetNameColumns = []string{"property_name", "apt_complex", "name"}

// LoadRevenueTargets reads the properties whose revenue should be
// estimated. Rows keep every input column so they are written back as-is.
func LoadRevenueTargets(filePath string) ([]models.RevenueTarget, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("revenue: open %q: %w", filePath, err)
	}
	defer f.Close()

	targets, err := ReadRevenueTargets(f)
	if err != nil {
		return nil, fmt.Errorf("revenue: read %q: %w", filePath, err)
	}
	return targets, nil
}

// ReadRevenueTargets parses a targets CSV. It needs state and unit_count
// columns; unit counts that do not parse are treated as zero.
func ReadRevenueTargets(r io.Reader) ([]models.RevenueTarget, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for _, required := range []string{"state", "unit_count"} {
		if _, ok := indexOf(header, required); !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}
	nameCol := ""
	for _, c := range targetNameColumns {
		if _, ok := indexOf(header, c); ok {
			nameCol = c
			break
		}
	}

	var targets []models.RevenueTarget
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blankRecord(rec) {
			continue
		}

		values := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				values[col] = rec[i]
			}
		}

		t := models.RevenueTarget{
			State:   values["state"],
			City:    values["city"],
			Name:    values[nameCol],
			Columns: header,
			Values:  values,
		}
		if n := parseOptionalInt(values["unit_count"]); n != nil {
			t.UnitCount = *n
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// SaveRevenueTargets writes targets in the given order with the revenue
// columns appended when the input lacked them. Unestimated targets keep
// whatever values they were read with. The file is replaced through a
// temporary file, so a failed write leaves the input intact.
func SaveRevenueTargets(filePath string, targets []models.RevenueTarget) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("revenue: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".revenue-*.csv")
	if err != nil {
		return fmt.Errorf("revenue: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteRevenueTargets(tmp, targets); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("revenue: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("revenue: replace %q: %w", filePath, err)
	}
	return nil
}

// WriteRevenueTargets writes targets as CSV.
func WriteRevenueTargets(w io.Writer, targets []models.RevenueTarget) error {
	header := revenueHeader(targets)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("revenue: write header: %w", err)
	}
	for _, t := range targets {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = revenueCell(t, col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("revenue: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func revenueHeader(targets []models.RevenueTarget) []string {
	var header []string
	if len(targets) > 0 && len(targets[0].Columns) > 0 {
		header = append(header, targets[0].Columns...)
	} else {
		header = []string{"state", "city", "property_name", "unit_count"}
	}
	for _, c := range []string{ColAvgRent, ColMonthlyRevenue, ColAnnualRevenue} {
		if _, ok := indexOf(header, c); !ok {
			header = append(header, c)
		}
	}
	return header
}

func revenueCell(t models.RevenueTarget, col string) string {
	if t.Estimated {
		switch col {
		case ColAvgRent:
			return strconv.FormatFloat(t.AvgRent, 'f', 2, 64)
		case ColMonthlyRevenue:
			return strconv.FormatFloat(t.MonthlyRevenue, 'f', 2, 64)
		case ColAnnualRevenue:
			return strconv.FormatFloat(t.AnnualRevenue, 'f', 2, 64)
		}
	}
	if t.Values != nil {
		return t.Values[col]
	}
	switch col {
	case "state":
		return t.State
	case "city":
		return t.City
	case "property_name":
		return t.Name
	case "unit_count":
		return strconv.Itoa(t.UnitCount)
	}
	return ""
}
