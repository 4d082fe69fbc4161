package solver

import (
	"context"
	"time"
)

// Status is the terminal state of a solve
type Status int

const (
	// StatusUnknown means the budget ran out before any solution was found
	// or infeasibility was proven
	StatusUnknown Status = iota
	// StatusFeasible means a solution was found but not proven optimal
	StatusFeasible
	// StatusOptimal means the returned solution is proven optimal
	StatusOptimal
	// StatusInfeasible means no assignment satisfies the constraints
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusFeasible:
		return "FEASIBLE"
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// HasSolution reports whether values are available
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Parameters bounds the resources of a single solve
type Parameters struct {
	// TimeLimit stops the search after this duration (0 = no limit)
	TimeLimit time.Duration

	// NumWorkers is the number of parallel search workers. Values <= 1 run a
	// single deterministic worker.
	NumWorkers int

	// NodeLimit stops each worker after this many branches (0 = no limit)
	NodeLimit int64
}

// Response is the outcome of a solve.
// Values holds one entry per model variable when Status.HasSolution().
type Response struct {
	Status         Status
	ObjectiveValue int64
	Values         []int64

	Conflicts int64
	Branches  int64
	WallTime  time.Duration
}

// Value returns the value of a variable in the solution
func (r *Response) Value(v Var) int64 {
	return r.Values[v]
}

// BoolValue returns true if a 0/1 variable is set in the solution
func (r *Response) BoolValue(v Var) bool {
	return r.Values[v] != 0
}

// Backend is any constraint or ILP capable engine that can solve a Model.
// Implementations must only return solutions that satisfy every posted
// constraint exactly. Errors are reserved for malformed models and engine
// failures; infeasibility and timeouts are reported through Status.
type Backend interface {
	Solve(ctx context.Context, m *Model, params Parameters) (*Response, error)
}
