package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
)

var (
	flagBackend  string
	flagDBPath   string
	flagLogLevel string
)

// app is what every subcommand works against, built once per invocation.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	ledger *services.LedgerService
	close  backend.CleanupFunc
}

var current *app

var rootCmd = &cobra.Command{
	Use:           "budget",
	Short:         "Personal budget ledger",
	Long:          "Track income, expenses and savings goals, with a low-balance alert.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSummary,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if current == nil || current.close == nil {
			return nil
		}
		return current.close()
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "",
		fmt.Sprintf("Data backend (%s); overrides DATA_BACKEND, default sqlite", strings.Join(backend.GetBackendTypeStrings(), ", ")))
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path; overrides SQLITE_DB_PATH")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func newApp(ctx context.Context) (*app, error) {
	cli.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	if flagDBPath != "" {
		cfg.SQLiteDBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cli.SetupLogger(os.Stderr, cfg.LogLevel, log.ComponentCLI)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger, cfg.SummaryCacheTTL).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", cfg.DataBackend, err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		ledger: result.Service,
		close:  result.Cleanup,
	}, nil
}
