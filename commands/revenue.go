package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"rent-portfolio/estimator"
	"rent-portfolio/models"
	"rent-portfolio/storage"
	"rent-portfolio/utils"
)

func init() {
	rootCmd.AddCommand(revenueCmd)
}

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Estimates monthly and annual revenue for properties with no scraped units.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.revenue()
	},
}

func (a *app) revenue() error {
	p, err := a.portfolio.Load()
	if err != nil {
		return fmt.Errorf("revenue: %w", err)
	}
	targets, err := storage.LoadRevenueTargets(a.cfg.PredictionsPath)
	if err != nil {
		return err
	}
	a.logger.Info("Portfolio: %d units, properties to estimate: %d", p.Len(), len(targets))

	space := estimator.NewFeatureSpace(a.encoder)
	model, report, err := estimator.NewEstimator(a.cfg, space, a.logger).Train(p.Units)
	if err != nil {
		return err
	}
	a.logger.Info("Model MAE $%.2f, R² %.4f", report.MAE, report.R2)

	rev := estimator.NewRevenueEstimator(space, a.encoder, model, a.logger)
	estimated, err := rev.Estimate(targets, estimator.NewStateStats(p.Units))
	if err != nil {
		return err
	}

	if err := storage.SaveRevenueTargets(a.cfg.PredictionsPath, estimated); err != nil {
		return err
	}
	a.logger.Info("Results saved to %s", a.cfg.PredictionsPath)

	if a.cfg.RevenueXLSXPath != "" {
		if err := storage.WriteRevenueXLSX(a.cfg.RevenueXLSXPath, estimated); err != nil {
			return err
		}
		a.logger.Info("Workbook saved to %s", a.cfg.RevenueXLSXPath)
	}

	printRevenueTotals(estimated)
	return nil
}

func printRevenueTotals(targets []models.RevenueTarget) {
	var units int
	var annual float64
	estimated := 0
	for _, t := range targets {
		units += t.UnitCount
		if t.Estimated {
			annual += t.AnnualRevenue
			estimated++
		}
	}

	t := utils.NewTable(os.Stdout)
	t.SetTitle("Revenue estimate")
	t.AppendRows([]table.Row{
		{"Total properties", humanize.Comma(int64(len(targets)))},
		{"Estimated", humanize.Comma(int64(estimated))},
		{"Total units", humanize.Comma(int64(units))},
		{"Total annual revenue", "$" + humanize.CommafWithDigits(annual, 2)},
	})
	t.Render()
}
