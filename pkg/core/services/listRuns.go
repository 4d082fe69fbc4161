package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/db"
)

var (
	// ErrNoRunStore is returned when run history is requested without a store
	ErrNoRunStore = errors.New("no run store configured")

	// ErrRunNotFound is returned when a run ID is unknown
	ErrRunNotFound = errors.New("run not found")
)

// RunDetails is a stored run with its assignments
type RunDetails struct {
	Run         db.RosterRun          `json:"run"`
	Assignments []db.RosterAssignment `json:"assignments"`
}

// ListRuns returns stored runs, newest first. limit <= 0 returns every run.
func ListRuns(ctx context.Context, store db.RunStore, logger *zap.Logger, limit int) ([]db.RosterRun, error) {
	if store == nil {
		return nil, ErrNoRunStore
	}

	logger.Debug("Fetching runs")
	runs, err := store.GetRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}
	logger.Debug("Found runs", zap.Int("count", len(runs)))

	db.SortNewestFirst(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetRun returns one stored run and its assignments
func GetRun(ctx context.Context, store db.RunStore, logger *zap.Logger, runID string) (*RunDetails, error) {
	runs, err := ListRuns(ctx, store, logger, 0)
	if err != nil {
		return nil, err
	}

	for _, run := range runs {
		if run.ID != runID {
			continue
		}
		assignments, err := store.GetAssignments(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch assignments: %w", err)
		}
		return &RunDetails{Run: run, Assignments: assignments}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}
