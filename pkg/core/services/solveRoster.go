package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/capacity"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// now is the run timestamp clock
var now = time.Now

// SolveRosterResult contains the outcome of a roster solve
type SolveRosterResult struct {
	// RunID is empty when no run store is configured
	RunID     string
	WeekStart time.Time

	Outcome *capacity.Outcome

	// Result is the extended roster when the pool was extended, otherwise the base roster
	Result *roster.Result

	// Published lists every file or tab the roster was written to
	Published []string
}

// SolveRoster reads the week's input, computes the roster, extends the pool
// with one candidate when the current doctors can't cover the week (if the
// advisor is enabled), stores the run and publishes the roster.
// store may be nil. Invalid input is returned as a *model.ConfigError.
func SolveRoster(
	ctx context.Context,
	source WeekSource,
	store db.RunStore,
	publishers []Publisher,
	backend solver.Backend,
	cfg *config.Config,
	logger *zap.Logger,
) (*SolveRosterResult, error) {
	weekStart, err := cfg.WeekStartDate()
	if err != nil {
		return nil, err
	}

	logger.Info("Solving roster",
		zap.String("week_start", cfg.WeekStart),
		zap.Bool("relaxed_staffing", cfg.Rules.RelaxedStaffing),
		zap.Bool("capacity_advisor", cfg.Capacity.Enabled))

	week, candidates, err := loadWeek(source, cfg, weekStart, logger)
	if err != nil {
		return nil, err
	}

	outcome, err := solveWeek(ctx, week, candidates, backend, cfg, logger)
	if err != nil {
		return nil, err
	}

	final := outcome.Base
	if outcome.Extended != nil {
		final = outcome.Extended
	}

	fields := []zap.Field{
		zap.String("state", string(outcome.State)),
		zap.String("status", final.Status.String()),
		zap.Int("shortfall", final.TotalShortfall()),
		zap.Bool("unresolved", outcome.Unresolved),
		zap.Duration("wall_time", final.Summary.WallTime),
	}
	if final.Summary.ObjectiveValue != nil {
		fields = append(fields, zap.Int64("objective", *final.Summary.ObjectiveValue))
	}
	if outcome.Hired != nil {
		fields = append(fields, zap.String("extended_with", outcome.Hired.Doctor.ID))
	}
	logger.Info("Roster computed", fields...)

	result := &SolveRosterResult{
		WeekStart: weekStart,
		Outcome:   outcome,
		Result:    final,
	}

	if store != nil {
		run, assignments := newRunRecords(weekStart, outcome, final)
		logger.Debug("Storing run", zap.String("run_id", run.ID), zap.Int("assignments", len(assignments)))
		if err := store.InsertRun(ctx, run, assignments); err != nil {
			return nil, fmt.Errorf("failed to store run: %w", err)
		}
		result.RunID = run.ID
	}

	for _, publisher := range publishers {
		published, err := publisher.Publish(weekStart, final)
		if err != nil {
			return nil, fmt.Errorf("failed to publish roster: %w", err)
		}
		logger.Info("Published roster", zap.Strings("to", published))
		result.Published = append(result.Published, published...)
	}

	return result, nil
}

// solveWeek runs the capacity advisor, or a single session when it is disabled
func solveWeek(
	ctx context.Context,
	week *model.Week,
	candidates []model.Candidate,
	backend solver.Backend,
	cfg *config.Config,
	logger *zap.Logger,
) (*capacity.Outcome, error) {
	opts := RosterOptions(cfg)
	params := SolverParameters(cfg)

	if cfg.Capacity.Enabled {
		logger.Debug("Running capacity advisor",
			zap.Int("candidates", len(candidates)),
			zap.Int("parallelism", cfg.Capacity.Parallelism))
		advisor := capacity.NewAdvisor(backend, opts, params, cfg.Capacity.Parallelism)
		outcome, err := advisor.Advise(ctx, week, candidates)
		if err != nil {
			return nil, err
		}
		for _, e := range outcome.Evaluations {
			logger.Debug("Evaluated candidate",
				zap.String("candidate", e.Candidate.Doctor.ID),
				zap.String("status", e.Result.Status.String()),
				zap.Bool("resolved", e.Resolved()))
		}
		return outcome, nil
	}

	session, err := roster.NewSession(week, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Built constraint model",
		zap.Int("variables", session.Model().NumVars()),
		zap.Int("constraints", session.Model().NumConstraints()))

	base, err := session.Solve(ctx, backend, params)
	if err != nil {
		return nil, fmt.Errorf("failed to solve roster: %w", err)
	}

	return &capacity.Outcome{
		State:      capacity.StateBase,
		Base:       base,
		Unresolved: capacity.NeedsExtension(base),
	}, nil
}

// newRunRecords builds the database records of a run
func newRunRecords(weekStart time.Time, outcome *capacity.Outcome, final *roster.Result) (*db.RosterRun, []db.RosterAssignment) {
	run := &db.RosterRun{
		ID:         uuid.New().String(),
		WeekStart:  weekStart.Format(db.DateFormat),
		Status:     final.Status.String(),
		State:      string(outcome.State),
		Objective:  final.Summary.ObjectiveValue,
		Shortfall:  final.TotalShortfall(),
		Unresolved: outcome.Unresolved,
		CreatedAt:  now().UTC().Format(db.TimestampFormat),
	}
	if outcome.Hired != nil {
		run.ExtendedWith = outcome.Hired.Doctor.ID
	}

	assignments := make([]db.RosterAssignment, 0, len(final.Schedule))
	for _, row := range final.Schedule {
		a := db.RosterAssignment{
			ID:        uuid.New().String(),
			RunID:     run.ID,
			Day:       row.Day.String(),
			ShiftID:   row.ShiftID,
			ShiftCode: row.ShiftCode,
		}
		if !row.Unfilled {
			a.DoctorID = row.DoctorID
		}
		assignments = append(assignments, a)
	}

	return run, assignments
}
