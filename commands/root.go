package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rent-portfolio/config"
	"rent-portfolio/services"
	"rent-portfolio/storage"
	"rent-portfolio/utils"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "rent-portfolio",
	Short:         "rent-portfolio scrapes apartment listings into a running portfolio and estimates market rents.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file to read configuration from")
}

// Execute runs the command line. Any error exits with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every stage needs, built once per invocation.
type app struct {
	cfg        *config.Config
	logger     *utils.Logger
	encoder    *services.Encoder
	reconciler *services.Reconciler
	insights   *services.InsightService
	portfolio  *storage.PortfolioStore
}

func newApp() (*app, error) {
	cfg := config.Load(envFile)

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	encoder := services.NewDefaultEncoder()
	normalizer := services.NewNormalizer(services.DefaultBrandPrefixes)

	return &app{
		cfg:        cfg,
		logger:     logger,
		encoder:    encoder,
		reconciler: services.NewReconciler(encoder, normalizer, logger),
		insights:   services.NewInsightService(logger),
		portfolio:  storage.NewPortfolioStore(cfg.OutputPath, encoder.Columns(), logger),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
