package capacity

import (
	"cmp"
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
)

// State is the stage the advisor finished in
type State string

const (
	// StateBase means the current pool was solved as is
	StateBase State = "BASE"
	// StateExtended means one candidate was added to the pool
	StateExtended State = "EXTENDED"
)

// Evaluation is the hypothetical solve of the pool plus one candidate
type Evaluation struct {
	Candidate model.Candidate
	Result    *roster.Result
}

// Resolved reports whether the extended pool produced a complete roster
func (e Evaluation) Resolved() bool {
	return resolved(e.Result)
}

// Outcome is the result of an advisor run.
// Base is always set. Extended and Hired are only set in StateExtended.
type Outcome struct {
	State    State
	Base     *roster.Result
	Extended *roster.Result
	Hired    *model.Candidate

	// Evaluations holds every candidate solve, in candidate order
	Evaluations []Evaluation

	// Unresolved is set when the base roster is incomplete and no single
	// candidate fixes it
	Unresolved bool
}

// Advisor decides whether the week needs one more doctor and, if so, which
// candidate to add
type Advisor struct {
	backend     solver.Backend
	params      solver.Parameters
	opts        roster.Options
	parallelism int
}

// NewAdvisor creates an advisor. parallelism bounds how many candidate
// solves run at once (values < 1 mean one at a time).
func NewAdvisor(backend solver.Backend, opts roster.Options, params solver.Parameters, parallelism int) *Advisor {
	return &Advisor{
		backend:     backend,
		params:      params,
		opts:        opts,
		parallelism: max(parallelism, 1),
	}
}

// NeedsExtension reports whether a base result calls for an extra doctor:
// no solution was found, or minimum staffing was relaxed and left unmet
func NeedsExtension(result *roster.Result) bool {
	return !resolved(result)
}

func resolved(result *roster.Result) bool {
	return result.HasSolution() && result.TotalShortfall() == 0
}

// Advise solves the week with the current pool and, if that leaves the
// week uncovered, evaluates every candidate with a fresh session and
// commits the best one.
//
// Candidates are ranked by:
//  1. resolved (a solution with no shortfall) before unresolved
//  2. lower total shortfall (no solution counts as worst)
//  3. lower objective value
//  4. lower cost
//  5. earlier in the candidate list
//
// Only a resolving candidate is committed.
func (a *Advisor) Advise(ctx context.Context, week *model.Week, candidates []model.Candidate) (*Outcome, error) {
	base, err := a.solve(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("failed to solve base roster: %w", err)
	}

	outcome := &Outcome{
		State: StateBase,
		Base:  base,
	}
	if !NeedsExtension(base) {
		return outcome, nil
	}

	evaluations, err := a.evaluate(ctx, week, candidates)
	if err != nil {
		return nil, err
	}
	outcome.Evaluations = evaluations

	best := Best(evaluations)
	if best < 0 || !evaluations[best].Resolved() {
		outcome.Unresolved = true
		return outcome, nil
	}

	// Single commit, after every evaluation has finished
	hired := evaluations[best].Candidate
	outcome.State = StateExtended
	outcome.Extended = evaluations[best].Result
	outcome.Hired = &hired

	return outcome, nil
}

func (a *Advisor) solve(ctx context.Context, week *model.Week) (*roster.Result, error) {
	session, err := roster.NewSession(week, a.opts)
	if err != nil {
		return nil, err
	}
	return session.Solve(ctx, a.backend, a.params)
}

// evaluate solves week + candidate for every candidate. Each solve owns its
// own session; results land in candidate order.
func (a *Advisor) evaluate(ctx context.Context, week *model.Week, candidates []model.Candidate) ([]Evaluation, error) {
	evaluations := make([]Evaluation, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)

	for i, c := range candidates {
		g.Go(func() error {
			result, err := a.solve(gctx, week.WithDoctor(c.Doctor))
			if err != nil {
				return fmt.Errorf("failed to evaluate candidate %s: %w", c.Doctor.ID, err)
			}
			evaluations[i] = Evaluation{Candidate: c, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return evaluations, nil
}

// Best returns the index of the best ranked evaluation, or -1 if there are none
func Best(evaluations []Evaluation) int {
	best := -1
	for i := range evaluations {
		if best < 0 || compare(evaluations[i], evaluations[best]) < 0 {
			best = i
		}
	}
	return best
}

// compare orders evaluations best first. Equal evaluations compare 0 so the
// earlier candidate wins.
func compare(a, b Evaluation) int {
	if ra, rb := a.Resolved(), b.Resolved(); ra != rb {
		if ra {
			return -1
		}
		return 1
	}
	return cmp.Or(
		cmp.Compare(shortfall(a.Result), shortfall(b.Result)),
		cmp.Compare(objective(a.Result), objective(b.Result)),
		cmp.Compare(a.Candidate.Cost, b.Candidate.Cost),
	)
}

func shortfall(r *roster.Result) int {
	if !r.HasSolution() {
		return math.MaxInt
	}
	return r.TotalShortfall()
}

func objective(r *roster.Result) int64 {
	if r.Summary.ObjectiveValue == nil {
		return math.MaxInt64
	}
	return *r.Summary.ObjectiveValue
}
