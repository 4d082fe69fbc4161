package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/cmd/cli/commands"
	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/clients/sheetsclient"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
	"github.com/jakechorley/duty-roster/pkg/db"
	"github.com/jakechorley/duty-roster/pkg/postgres"
	"github.com/jakechorley/duty-roster/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
	pg      *postgres.DB
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Duty Roster CLI - Compute weekly doctor rosters",
		Long:  `A CLI tool for computing fair weekly duty rosters, advising on extra staff and browsing past runs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if pg != nil {
				pg.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.SolveCmd(app))
	rootCmd.AddCommand(commands.CheckCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.HistoryCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, clients and the run store
func initApp() error {
	var err error
	app.Ctx = context.Background()

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	app.Backend = solver.NewEngine()

	if usesSpreadsheets(app.Cfg) {
		app.Logger.Info("Loading OAuth client configuration")
		oauthCfg, err := config.LoadOAuthClientWithEnv(env)
		if err != nil {
			return fmt.Errorf("failed to load OAuth client config: %w", err)
		}

		app.Logger.Info("Initializing sheets client")
		app.SheetsClient, err = sheetsclient.NewClient(app.Ctx, oauthCfg, env, writesSpreadsheets(app.Cfg), app.Logger)
		if err != nil {
			return fmt.Errorf("failed to create sheets client: %w", err)
		}
		app.Logger.Debug("Sheets client initialized successfully")
	}

	switch {
	case app.Cfg.DatabaseDSN != "":
		app.Logger.Info("Connecting to postgres")
		pg, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		applied, err := pg.RunMigrations(app.Ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Logger.Debug("Migrations applied", zap.Strings("files", applied))
		app.Store = pg

	case app.Cfg.DatabaseSheetID != "":
		app.Logger.Info("Connecting to database", zap.String("spreadsheet_id", app.Cfg.DatabaseSheetID))
		database, err := db.Open(app.SheetsClient, app.Cfg.DatabaseSheetID)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.Store = database

	default:
		app.Logger.Info("No run store configured, runs will not be stored")
	}

	return nil
}

func usesSpreadsheets(cfg *config.Config) bool {
	return cfg.Input.SpreadsheetID != "" || writesSpreadsheets(cfg)
}

// writesSpreadsheets reports whether rosters or runs are written to a spreadsheet
func writesSpreadsheets(cfg *config.Config) bool {
	return cfg.Output.SpreadsheetID != "" || (cfg.DatabaseDSN == "" && cfg.DatabaseSheetID != "")
}
