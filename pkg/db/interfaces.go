package db

import "context"

// RunStore defines the interface for roster run database operations.
// Both the SheetsSQL-backed db.DB and postgres.DB implement this interface.
type RunStore interface {
	// InsertRun stores a run together with its assignments
	InsertRun(ctx context.Context, run *RosterRun, assignments []RosterAssignment) error

	// GetRuns returns every run, newest first
	GetRuns(ctx context.Context) ([]RosterRun, error)

	// GetAssignments returns the assignments of one run
	GetAssignments(ctx context.Context, runID string) ([]RosterAssignment, error)
}
