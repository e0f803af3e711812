package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rent-portfolio/models"
)

const revenueSheet = "Revenue"

// WriteRevenueXLSX writes the revenue estimates to a single-sheet workbook
// with currency formatting on the revenue columns and a totals row.
func WriteRevenueXLSX(filePath string, targets []models.RevenueTarget) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("xlsx: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", revenueSheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	header := []interface{}{"State", "City", "Property", "Units", "Avg rent", "Monthly revenue", "Annual revenue"}
	if err := f.SetSheetRow(revenueSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	var totalUnits int
	var totalAnnual float64
	for i, t := range targets {
		row := []interface{}{t.State, t.City, t.Name, t.UnitCount}
		if t.Estimated {
			row = append(row, t.AvgRent, t.MonthlyRevenue, t.AnnualRevenue)
			totalAnnual += t.AnnualRevenue
		}
		totalUnits += t.UnitCount

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(revenueSheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+2, err)
		}
	}

	totalsCell, err := excelize.CoordinatesToCellName(1, len(targets)+2)
	if err != nil {
		return err
	}
	totals := []interface{}{"Total", "", "", totalUnits, nil, nil, totalAnnual}
	if err := f.SetSheetRow(revenueSheet, totalsCell, &totals); err != nil {
		return fmt.Errorf("xlsx: write totals: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}
	if err := f.SetRowStyle(revenueSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("xlsx: apply header style: %w", err)
	}

	// Built-in number format 4 is "#,##0.00".
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("xlsx: money style: %w", err)
	}
	if err := f.SetColStyle(revenueSheet, "E:G", money); err != nil {
		return fmt.Errorf("xlsx: apply money style: %w", err)
	}
	if err := f.SetColWidth(revenueSheet, "C", "C", 36); err != nil {
		return fmt.Errorf("xlsx: column width: %w", err)
	}
	if err := f.SetColWidth(revenueSheet, "E", "G", 18); err != nil {
		return fmt.Errorf("xlsx: column width: %w", err)
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", filePath, err)
	}
	return nil
}
