package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/clients/csvclient"
	"github.com/jakechorley/duty-roster/pkg/clients/sheetsclient"
	"github.com/jakechorley/duty-roster/pkg/core/services"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg          *config.Config
	SheetsClient *sheetsclient.Client
	Backend      solver.Backend
	Store        db.RunStore
	Logger       *zap.Logger
	Ctx          context.Context
}

var errNoSheetsClient = errors.New("spreadsheet configured but no sheets client available")

// Source returns the configured input source
func (app *AppContext) Source() (services.WeekSource, error) {
	if app.Cfg.Input.CSVDir != "" {
		return csvclient.NewClient(app.Cfg.Input.CSVDir), nil
	}
	if app.SheetsClient == nil {
		return nil, errNoSheetsClient
	}
	return services.SpreadsheetSource(app.SheetsClient, app.Cfg.Input.SpreadsheetID), nil
}

// Publishers returns every configured output
func (app *AppContext) Publishers() ([]services.Publisher, error) {
	var publishers []services.Publisher
	if app.Cfg.Output.CSVDir != "" {
		publishers = append(publishers, services.CSVPublisher(csvclient.NewClient(app.Cfg.Output.CSVDir)))
	}
	if app.Cfg.Output.SpreadsheetID != "" {
		if app.SheetsClient == nil {
			return nil, errNoSheetsClient
		}
		publishers = append(publishers, services.SpreadsheetPublisher(app.SheetsClient, app.Cfg.Output.SpreadsheetID))
	}
	return publishers, nil
}

// overrideWeek applies a --week flag and revalidates the configuration
func (app *AppContext) overrideWeek(week string) error {
	if week == "" {
		return nil
	}
	app.Cfg.WeekStart = week
	if err := config.Validate(app.Cfg); err != nil {
		return fmt.Errorf("invalid --week: %w", err)
	}
	return nil
}
