package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rent-portfolio/models"
)

func TestRevenueTargetsRoundTrip(t *testing.T) {
	in := "state,city,Unnamed: 4,unit_count,owner\n" +
		"California,San Jose,Avalon Willow Glen,100,AVB\n" +
		"Ohio,Columbus,Nowhere,abc,AVB\n"

	targets, err := ReadRevenueTargets(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, 100, targets[0].UnitCount)
	assert.Equal(t, 0, targets[1].UnitCount)

	targets[0].Estimated = true
	targets[0].AvgRent = 1860
	targets[0].MonthlyRevenue = 186000
	targets[0].AnnualRevenue = 2232000

	var buf bytes.Buffer
	require.NoError(t, WriteRevenueTargets(&buf, targets))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "state,city,Unnamed: 4,unit_count,owner,avg_rent,monthly_revenue,annual_revenue", lines[0])
	assert.Equal(t, "California,San Jose,Avalon Willow Glen,100,AVB,1860.00,186000.00,2232000.00", lines[1])
	assert.Equal(t, "Ohio,Columbus,Nowhere,abc,AVB,,,", lines[2])
}

func TestReadRevenueTargetsNeedsUnitCount(t *testing.T) {
	_, err := ReadRevenueTargets(strings.NewReader("state,city\nTexas,Austin\n"))
	assert.ErrorContains(t, err, "unit_count")
}

func TestSaveRevenueTargetsReplacesInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.csv")
	require.NoError(t, os.WriteFile(path, []byte("state,city,property_name,unit_count\nTexas,Austin,Avalon Domain,10\n"), 0o644))

	targets, err := LoadRevenueTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	targets[0].Estimated = true
	targets[0].AvgRent = 1500
	targets[0].MonthlyRevenue = 15000
	targets[0].AnnualRevenue = 180000

	require.NoError(t, SaveRevenueTargets(path, targets))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "state,city,property_name,unit_count,avg_rent,monthly_revenue,annual_revenue\n"+
		"Texas,Austin,Avalon Domain,10,1500.00,15000.00,180000.00\n", string(raw))
}

func TestSaveRevenueTargetsFailureKeepsDestination(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "targets.csv")
	require.NoError(t, os.Mkdir(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "keep.txt"), []byte("keep"), 0o644))

	err := SaveRevenueTargets(dest, []models.RevenueTarget{{State: "Texas", Columns: []string{"state"}, Values: map[string]string{"state": "Texas"}}})
	require.Error(t, err)

	kept, err := os.ReadFile(filepath.Join(dest, "keep.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(kept))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteRevenueXLSX(t *testing.T) {
	targets, err := ReadRevenueTargets(strings.NewReader("state,city,property_name,unit_count\nTexas,Austin,Avalon Domain,10\n"))
	require.NoError(t, err)
	targets[0].Estimated = true
	targets[0].AvgRent = 1500
	targets[0].MonthlyRevenue = 15000
	targets[0].AnnualRevenue = 180000

	path := filepath.Join(t.TempDir(), "revenue.xlsx")
	require.NoError(t, WriteRevenueXLSX(path, targets))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(revenueSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Avalon Domain", name)

	total, err := f.GetCellValue(revenueSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Total", total)

	annual, err := f.GetCellValue(revenueSheet, "G3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "180000", annual)
}
