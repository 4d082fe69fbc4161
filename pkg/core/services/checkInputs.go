package services

import (
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
)

// CheckInputsResult summarises a week whose input is consistent
type CheckInputsResult struct {
	Doctors     int `json:"doctors"`
	Shifts      int `json:"shifts"`
	Candidates  int `json:"candidates"`
	Skills      int `json:"skills"`
	Variables   int `json:"variables"`
	Constraints int `json:"constraints"`
}

// CheckInputs validates the week's input and builds its constraint model
// without solving. Invalid input is returned as a *model.ConfigError.
func CheckInputs(source WeekSource, cfg *config.Config, logger *zap.Logger) (*CheckInputsResult, error) {
	weekStart, err := cfg.WeekStartDate()
	if err != nil {
		return nil, err
	}

	week, candidates, err := loadWeek(source, cfg, weekStart, logger)
	if err != nil {
		return nil, err
	}

	session, err := roster.NewSession(week, RosterOptions(cfg))
	if err != nil {
		return nil, err
	}

	result := &CheckInputsResult{
		Doctors:     len(week.Doctors),
		Shifts:      len(week.Shifts),
		Candidates:  len(candidates),
		Skills:      len(week.Skills),
		Variables:   session.Model().NumVars(),
		Constraints: session.Model().NumConstraints(),
	}

	logger.Info("Input is consistent",
		zap.Int("doctors", result.Doctors),
		zap.Int("shifts", result.Shifts),
		zap.Int("candidates", result.Candidates),
		zap.Int("variables", result.Variables),
		zap.Int("constraints", result.Constraints))

	return result, nil
}
