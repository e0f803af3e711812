package commands

import (
	"fmt"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"rent-portfolio/estimator"
	"rent-portfolio/utils"
)

var estimatePredict bool

func init() {
	estimateCmd.Flags().BoolVar(&estimatePredict, "predict", false, "write adjusted_price for unpriced units back to the portfolio")
	rootCmd.AddCommand(estimateCmd)
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Trains the rent model on priced units and reports its accuracy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.estimate()
	},
}

func (a *app) estimate() error {
	p, err := a.portfolio.Load()
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}

	est := estimator.NewEstimator(a.cfg, estimator.NewFeatureSpace(a.encoder), a.logger)
	model, report, err := est.Train(p.Units)
	if err != nil {
		return err
	}
	printModelReport(report, p.Len())

	if !estimatePredict {
		return nil
	}
	predicted, n := est.PredictUnpriced(p, model)
	if n == 0 {
		a.logger.Info("Every unit already has a price, nothing to predict")
		return nil
	}
	return a.portfolio.Save(predicted)
}

func printModelReport(r *estimator.Report, total int) {
	adj := "n/a"
	if !math.IsNaN(r.AdjustedR2) {
		adj = fmt.Sprintf("%.4f", r.AdjustedR2)
	}

	t := utils.NewTable(os.Stdout)
	t.SetTitle("Model performance")
	t.AppendRows([]table.Row{
		{"Total rows", humanize.Comma(int64(total))},
		{"Trained on", humanize.Comma(int64(r.TrainSize))},
		{"Validated on", humanize.Comma(int64(r.TestSize))},
		{"Features", r.Features},
		{"Mean absolute error", "$" + humanize.CommafWithDigits(r.MAE, 2)},
		{"R²", fmt.Sprintf("%.4f", r.R2)},
		{"Adjusted R²", adj},
	})
	t.Render()
}
