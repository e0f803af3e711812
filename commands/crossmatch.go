package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rent-portfolio/storage"
)

var crossmatchDryRun bool

func init() {
	crossmatchCmd.Flags().BoolVar(&crossmatchDryRun, "dry-run", false, "report matches without writing the portfolio")
	rootCmd.AddCommand(crossmatchCmd)
}

var crossmatchCmd = &cobra.Command{
	Use:   "crossmatch",
	Short: "Carries prices from the currently-available feed onto matching portfolio units.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.crossmatch()
	},
}

func (a *app) crossmatch() error {
	persisted, err := a.portfolio.Load()
	if err != nil {
		return fmt.Errorf("crossmatch: portfolio: %w", err)
	}

	available, err := storage.NewPortfolioStore(a.cfg.AvailablePath, a.encoder.Columns(), a.logger).Load()
	if err != nil {
		return fmt.Errorf("crossmatch: available units: %w", err)
	}
	if available.Len() == 0 {
		a.logger.Warn("No available units in %s, nothing to match", a.cfg.AvailablePath)
		return nil
	}
	a.logger.Info("Matching %d available units against %d portfolio units", available.Len(), persisted.Len())

	merged, summary := a.reconciler.CrossMatch(persisted, available.Units)
	a.insights.PrintCrossMatch(os.Stdout, &summary)

	if crossmatchDryRun {
		a.logger.Info("Dry run, %s not written", a.portfolio.Path())
		return nil
	}
	return a.portfolio.Save(merged)
}
