package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/jakechorley/duty-roster/pkg/sheetssql"
)

// DB provides database operations using SheetsSQL
type DB struct {
	ssql *sheetssql.DB
}

var _ RunStore = (*DB)(nil)

// NewDB creates a new database instance
func NewDB(ssql *sheetssql.DB) *DB {
	return &DB{
		ssql: ssql,
	}
}

// Schema returns the SheetsSQL schema of the run tables
func Schema() (*sheetssql.Schema, error) {
	return sheetssql.SchemaFromModels(RosterRun{}, RosterAssignment{})
}

// Open ensures the run tables exist in the spreadsheet and returns a store
// over them
func Open(client sheetssql.SheetsClient, spreadsheetID string) (*DB, error) {
	schema, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}
	ssql, err := sheetssql.NewDB(client, spreadsheetID, schema)
	if err != nil {
		return nil, err
	}
	return NewDB(ssql), nil
}

// InsertRun appends the run and its assignments. Sheets has no transactions,
// so the assignments are written first: a run row only appears once its
// assignments are stored.
func (db *DB) InsertRun(ctx context.Context, run *RosterRun, assignments []RosterAssignment) error {
	if err := sheetssql.InsertModels(db.ssql, assignments); err != nil {
		return fmt.Errorf("failed to insert assignments: %w", err)
	}
	if err := sheetssql.InsertModels(db.ssql, []RosterRun{*run}); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRuns retrieves all run records, newest first. Rows are append-only, so
// when an ID appears twice the later row wins.
func (db *DB) GetRuns(ctx context.Context) ([]RosterRun, error) {
	rows, err := sheetssql.GetTableAs[RosterRun](db.ssql, "roster_run")
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}

	byID := make(map[string]int, len(rows))
	runs := make([]RosterRun, 0, len(rows))
	for _, r := range rows {
		if i, ok := byID[r.ID]; ok {
			runs[i] = r
			continue
		}
		byID[r.ID] = len(runs)
		runs = append(runs, r)
	}

	SortNewestFirst(runs)
	return runs, nil
}

// GetAssignments retrieves the assignments of one run
func (db *DB) GetAssignments(ctx context.Context, runID string) ([]RosterAssignment, error) {
	rows, err := sheetssql.GetTableAs[RosterAssignment](db.ssql, "roster_assignment")
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}

	assignments := make([]RosterAssignment, 0)
	for _, a := range rows {
		if a.RunID == runID {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

// SortNewestFirst orders runs by creation time, newest first. RFC 3339 UTC
// timestamps sort lexically.
func SortNewestFirst(runs []RosterRun) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt > runs[j].CreatedAt
	})
}
