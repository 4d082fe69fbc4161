package db

import "time"

// Timestamps are stored as RFC 3339 in UTC, week starts as dates
const (
	DateFormat      = "2006-01-02"
	TimestampFormat = time.RFC3339
)

// RosterRun represents a database roster run record: one computed roster
// for a week, with the advisor's decision
type RosterRun struct {
	ID        string `col:"id" ssql_type:"uuid" json:"id"`
	WeekStart string `col:"week_start" ssql_type:"date" json:"week_start"`
	Status    string `col:"status" ssql_type:"text" json:"status"`
	State     string `col:"state" ssql_type:"text" json:"state"`

	// Objective is nil when no roster was produced
	Objective *int64 `col:"objective" ssql_type:"int" json:"objective,omitempty"`
	Shortfall int    `col:"shortfall" ssql_type:"int" json:"shortfall"`

	// ExtendedWith is the candidate added to the pool, if any
	ExtendedWith string `col:"extended_with" ssql_type:"text" json:"extended_with,omitempty"`
	Unresolved   bool   `col:"unresolved" ssql_type:"bool" json:"unresolved"`
	CreatedAt    string `col:"created_at" ssql_type:"timestamp" json:"created_at"`
}

// RosterAssignment represents a database assignment record: one doctor on
// one shift of a run. DoctorID is empty for an unfilled staffing slot.
type RosterAssignment struct {
	ID        string `col:"id" ssql_type:"uuid" json:"id"`
	RunID     string `col:"run_id" ssql_type:"uuid" json:"run_id"`
	Day       string `col:"day" ssql_type:"text" json:"day"`
	ShiftID   string `col:"shift_id" ssql_type:"text" json:"shift_id"`
	ShiftCode string `col:"shift_code" ssql_type:"text" json:"shift_code"`
	DoctorID  string `col:"doctor_id" ssql_type:"text" json:"doctor_id,omitempty"`
}
