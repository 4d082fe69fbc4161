package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/duty-roster/pkg/db"
)

var _ db.RunStore = (*DB)(nil)

// InsertRun inserts a run and its assignments in one transaction
func (d *DB) InsertRun(ctx context.Context, run *db.RosterRun, assignments []db.RosterAssignment) error {
	createdAt, err := time.Parse(db.TimestampFormat, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("invalid run created_at %q: %w", run.CreatedAt, err)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO roster_run (id, week_start, status, state, objective, shortfall, extended_with, unresolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.ID, run.WeekStart, run.Status, run.State, run.Objective, run.Shortfall,
		nullable(run.ExtendedWith), run.Unresolved, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(assignments) > 0 {
		batch := &pgx.Batch{}
		for _, a := range assignments {
			batch.Queue(`
				INSERT INTO roster_assignment (id, run_id, day, shift_id, shift_code, doctor_id)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, a.ID, a.RunID, a.Day, a.ShiftID, a.ShiftCode, nullable(a.DoctorID))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRuns retrieves all run records, newest first
func (d *DB) GetRuns(ctx context.Context) ([]db.RosterRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, week_start, status, state, objective, shortfall, extended_with, unresolved, created_at
		FROM roster_run
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []db.RosterRun
	for rows.Next() {
		var r db.RosterRun
		var weekStart, createdAt time.Time
		var extendedWith *string
		if err := rows.Scan(&r.ID, &weekStart, &r.Status, &r.State, &r.Objective, &r.Shortfall,
			&extendedWith, &r.Unresolved, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.WeekStart = weekStart.Format(db.DateFormat)
		r.CreatedAt = createdAt.UTC().Format(db.TimestampFormat)
		if extendedWith != nil {
			r.ExtendedWith = *extendedWith
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetAssignments retrieves the assignments of one run
func (d *DB) GetAssignments(ctx context.Context, runID string) ([]db.RosterAssignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, run_id, day, shift_id, shift_code, doctor_id
		FROM roster_assignment
		WHERE run_id = $1
		ORDER BY shift_id, doctor_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]db.RosterAssignment, 0)
	for rows.Next() {
		var a db.RosterAssignment
		var doctorID *string
		if err := rows.Scan(&a.ID, &a.RunID, &a.Day, &a.ShiftID, &a.ShiftCode, &doctorID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if doctorID != nil {
			a.DoctorID = *doctorID
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

// nullable maps an empty string to NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
