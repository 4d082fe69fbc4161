package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
)

// Session is a single self-contained roster computation. It owns the
// constraint model, one decision variable per (doctor, shift) pair and the
// auxiliary fairness variables. Sessions are created fresh per request and
// never shared.
type Session struct {
	*index
	opts  Options
	rules []Rule

	model *solver.Model

	// x[d][s] is 1 when doctor d works shift s
	x [][]solver.Var

	// shortfall[s] counts unfilled staff slots on shift s (relaxed mode only)
	shortfall map[int]solver.Var

	fairness *fairness
}

// NewSession validates the week and builds the complete constraint model.
// Inconsistent input is returned as a *model.ConfigError before any variable
// is created.
func NewSession(week *model.Week, opts Options) (*Session, error) {
	if week == nil {
		return nil, errors.New("week is required")
	}
	if err := week.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid roster options: %w", err)
	}

	s := &Session{
		index:     newIndex(week),
		opts:      opts,
		rules:     HardRules(opts),
		model:     solver.NewModel(),
		shortfall: make(map[int]solver.Var),
	}

	s.x = make([][]solver.Var, len(week.Doctors))
	for d, doc := range week.Doctors {
		s.x[d] = make([]solver.Var, len(week.Shifts))
		for sh, shift := range week.Shifts {
			s.x[d][sh] = s.model.NewBoolVar(fmt.Sprintf("x_%s_%s", doc.ID, shift.ID))
		}
	}

	for _, rule := range s.rules {
		rule.Post(s)
	}

	s.fairness = buildFairness(s)
	s.buildObjective()

	return s, nil
}

// Model returns the constraint model owned by the session
func (s *Session) Model() *solver.Model {
	return s.model
}

// Rules returns the hard rules posted on the model
func (s *Session) Rules() []Rule {
	return s.rules
}

// Week returns the input week
func (s *Session) Week() *model.Week {
	return s.week
}

// doctorVars returns x[d][s] for every doctor d on shift s
func (s *Session) doctorVars(shift int) []solver.Var {
	vars := make([]solver.Var, 0, len(s.x))
	for d := range s.x {
		vars = append(vars, s.x[d][shift])
	}
	return vars
}

// shiftVars returns x[d][s] for each of the given shifts
func (s *Session) shiftVars(d int, shifts []int) []solver.Var {
	vars := make([]solver.Var, 0, len(shifts))
	for _, sh := range shifts {
		vars = append(vars, s.x[d][sh])
	}
	return vars
}

// forbid fixes x[d][s] to zero
func (s *Session) forbid(d, shift int) {
	s.model.Fix(s.x[d][shift], 0)
}

// Solve hands the model to the backend and extracts the roster.
// INFEASIBLE and UNKNOWN are returned as result states, not errors. A
// solution that breaks a hard rule is an error and is never returned.
func (s *Session) Solve(ctx context.Context, backend solver.Backend, params solver.Parameters) (*Result, error) {
	resp, err := backend.Solve(ctx, s.model, params)
	if err != nil {
		return nil, fmt.Errorf("failed to solve roster model: %w", err)
	}

	result := s.extract(resp)

	if result.Roster != nil {
		if violations := result.Roster.Verify(s.rules); len(violations) > 0 {
			return nil, &VerificationError{Violations: violations}
		}
	}

	return result, nil
}

// VerificationError is returned when a solver solution breaks a hard rule
type VerificationError struct {
	Violations []Violation
}

func (e *VerificationError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, v.String())
	}
	return fmt.Sprintf("solution breaks %d hard rule(s): %s", len(e.Violations), strings.Join(lines, "; "))
}
