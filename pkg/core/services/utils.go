package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
)

// RosterOptions converts the configured weights and limits into session options
func RosterOptions(cfg *config.Config) roster.Options {
	return roster.Options{
		Weights: roster.Weights{
			Preference:  cfg.Objective.PreferenceWeight,
			NightSpread: cfg.Objective.NightSpreadWeight,
			RatioSpread: cfg.Objective.RatioSpreadWeight,
			Shortfall:   cfg.Objective.ShortfallWeight,
		},
		Limits: roster.Limits{
			MinRestHours:      cfg.Rules.MinRestHours,
			NightWindowDays:   cfg.Rules.NightWindowDays,
			MaxNightsInWindow: cfg.Rules.MaxNightsInWindow,
			MaxWorkedDays:     cfg.Rules.MaxWorkedDays,
			ExtraStaff:        cfg.Rules.ExtraStaff,
		},
		RelaxedStaffing: cfg.Rules.RelaxedStaffing,
	}
}

// SolverParameters converts the configured search budget
func SolverParameters(cfg *config.Config) solver.Parameters {
	return solver.Parameters{
		TimeLimit:  cfg.Solver.TimeLimit,
		NumWorkers: cfg.Solver.NumWorkers,
		NodeLimit:  cfg.Solver.NodeLimit,
	}
}

// expandRecurringUnavailability returns a day unavailability for every day of
// the week matched by a recurring rule
func expandRecurringUnavailability(
	rules []config.RecurringUnavailability,
	weekStart time.Time,
	logger *zap.Logger,
) ([]model.UnavailabilityDayRecord, error) {
	weekEnd := weekStart.AddDate(0, 0, model.DaysPerWeek-1)

	var records []model.UnavailabilityDayRecord
	for i, r := range rules {
		rule, err := rrule.StrToRRule(r.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for recurring unavailability %d: %w", i, err)
		}

		// Anchor the rule to the roster week
		rule.DTStart(weekStart)

		occurrences := rule.Between(weekStart, weekEnd, true)
		for _, occurrence := range occurrences {
			day := model.Day(int(occurrence.Sub(weekStart).Hours()) / model.HoursPerDay)
			records = append(records, model.UnavailabilityDayRecord{
				DoctorID: r.DoctorID,
				Day:      day.String(),
			})
		}

		logger.Debug("Expanded recurring unavailability",
			zap.String("doctor_id", r.DoctorID),
			zap.String("rrule", r.RRule),
			zap.Int("days", len(occurrences)))
	}

	return records, nil
}

// mergeUnavailability appends day records that aren't already present
func mergeUnavailability(existing, extra []model.UnavailabilityDayRecord) []model.UnavailabilityDayRecord {
	seen := make(map[model.UnavailabilityDayRecord]bool, len(existing))
	for _, r := range existing {
		seen[r] = true
	}

	merged := append([]model.UnavailabilityDayRecord{}, existing...)
	for _, r := range extra {
		if seen[r] {
			continue
		}
		seen[r] = true
		merged = append(merged, r)
	}
	return merged
}

// loadWeek reads the input tables, applies recurring unavailability and
// resolves them into a week and candidate pool
func loadWeek(source WeekSource, cfg *config.Config, weekStart time.Time, logger *zap.Logger) (*model.Week, []model.Candidate, error) {
	logger.Debug("Reading input tables")
	tables, err := source.ReadTables()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input tables: %w", err)
	}
	logger.Debug("Read input tables",
		zap.Int("doctors", len(tables.Doctors)),
		zap.Int("shifts", len(tables.Shifts)),
		zap.Int("candidates", len(tables.Candidates)))

	recurring, err := expandRecurringUnavailability(cfg.RecurringUnavailability, weekStart, logger)
	if err != nil {
		return nil, nil, err
	}
	tables.UnavailableDays = mergeUnavailability(tables.UnavailableDays, recurring)

	week, candidates, err := model.Resolve(tables)
	if err != nil {
		return nil, nil, err
	}
	return week, candidates, nil
}
