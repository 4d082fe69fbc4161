package solver

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Engine is the built-in Backend: depth-first branch and bound over the
// variable domains with bounds propagation on every constraint. Unmet
// covering constraints are filled first, tightest first. Parallel
// workers explore the same tree with different branching orders and share
// the incumbent objective so each one prunes with the best known bound.
type Engine struct{}

// NewEngine creates the built-in solving engine
func NewEngine() *Engine {
	return &Engine{}
}

// incumbent is the best solution shared between workers
type incumbent struct {
	mu     sync.Mutex
	found  bool
	obj    int64
	values []int64

	// done is set once any worker finishes its full search or a
	// satisfaction model has its first solution
	done atomic.Bool
}

// offer records a solution if it improves on the incumbent
func (inc *incumbent) offer(obj int64, values []int64) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if inc.found && obj >= inc.obj {
		return
	}
	inc.found = true
	inc.obj = obj
	inc.values = slices.Clone(values)
}

// bound returns the objective value a new solution must beat
func (inc *incumbent) bound() (int64, bool) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	return inc.obj, inc.found
}

// Solve searches for an optimal assignment of the model.
// It blocks until the search completes, the time or node budget is spent, or
// ctx is cancelled. The best solution found so far is returned on timeout.
func (e *Engine) Solve(ctx context.Context, m *Model, params Parameters) (*Response, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	start := time.Now()

	if params.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.TimeLimit)
		defer cancel()
	}

	numWorkers := max(params.NumWorkers, 1)
	inc := &incumbent{}

	var (
		wg        sync.WaitGroup
		proven    atomic.Bool
		conflicts atomic.Int64
		branches  atomic.Int64
	)

	for i := 0; i < numWorkers; i++ {
		w := newWorker(m, i, numWorkers, inc, params.NodeLimit)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.run(ctx) {
				proven.Store(true)
				inc.done.Store(true)
			}
			conflicts.Add(w.conflicts)
			branches.Add(w.branches)
		}()
	}
	wg.Wait()

	resp := &Response{
		Conflicts: conflicts.Load(),
		Branches:  branches.Load(),
		WallTime:  time.Since(start),
	}

	obj, found := inc.bound()
	switch {
	case found && proven.Load():
		// Also covers satisfaction models, which stop at the first solution
		resp.Status = StatusOptimal
	case found:
		resp.Status = StatusFeasible
	case proven.Load():
		resp.Status = StatusInfeasible
	default:
		resp.Status = StatusUnknown
	}

	if found {
		resp.ObjectiveValue = obj
		resp.Values = inc.values
	}

	return resp, nil
}
