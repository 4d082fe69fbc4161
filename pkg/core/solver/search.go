package solver

import (
	"context"
	"slices"
)

// stopCheckInterval is how many nodes a worker explores between checks of
// the context and the shared done flag
const stopCheckInterval = 256

type trailEntry struct {
	v      Var
	lo, hi int64
}

// worker owns a private copy of the domains and explores the search tree
type worker struct {
	m  *Model
	lo []int64
	hi []int64

	trail []trailEntry

	// Constraint ids: [0, len(linears)) are linear constraints,
	// then the min/max constraints, then the objective bound (if any)
	watches  [][]int
	queue    []int
	inQueue  []bool
	numLin   int
	numExt   int
	objIndex int

	order     []Var
	valueHigh bool
	tieOffset int

	// demands are the linear constraints lo <= sum(terms) with only
	// positive coefficients over at least one 0/1 variable
	demands []int

	// resource[v] is the capped linear constraint weighing 0/1 variable v
	// most (-1 if none), rootRoom its headroom before any decision
	resource []int
	rootRoom []int64

	inc       *incumbent
	nodeLimit int64
	stopped   bool
	satisfied bool

	conflicts int64
	branches  int64
	nodes     int64
}

func newWorker(m *Model, index, numWorkers int, inc *incumbent, nodeLimit int64) *worker {
	n := len(m.vars)
	w := &worker{
		m:         m,
		lo:        make([]int64, n),
		hi:        make([]int64, n),
		watches:   make([][]int, n),
		numLin:    len(m.linears),
		numExt:    len(m.extrema),
		objIndex:  -1,
		inc:       inc,
		nodeLimit: nodeLimit,
		valueHigh: index%2 == 1,
		tieOffset: index,
	}

	for i, v := range m.vars {
		w.lo[i] = v.lo
		w.hi[i] = v.hi
	}

	for ci, l := range m.linears {
		for _, t := range l.terms {
			w.watch(t.Var, ci)
		}
	}
	for ei, e := range m.extrema {
		ci := w.numLin + ei
		w.watch(e.target, ci)
		for _, a := range e.args {
			w.watch(a, ci)
		}
	}
	numCons := w.numLin + w.numExt
	if m.minimize {
		w.objIndex = numCons
		for _, t := range m.objective {
			w.watch(t.Var, w.objIndex)
		}
		numCons++
	}
	w.inQueue = make([]bool, numCons)

	w.indexDemands()

	// Branch on 0/1 decisions first, in declaration order, then on the
	// remaining integer variables. Workers after the first two rotate the
	// boolean order so the portfolio covers different parts of the tree.
	var bools, ints []Var
	for i, v := range m.vars {
		if v.isBool {
			bools = append(bools, Var(i))
		} else {
			ints = append(ints, Var(i))
		}
	}
	if index >= 2 && len(bools) > 0 {
		shift := (index * len(bools) / numWorkers) % len(bools)
		bools = append(bools[shift:], bools[:shift]...)
	}
	w.order = append(bools, ints...)

	return w
}

// indexDemands finds the demand constraints and the resource constraint of
// every 0/1 variable
func (w *worker) indexDemands() {
	w.resource = make([]int, len(w.m.vars))
	coefs := make([]int64, len(w.m.vars))
	for i := range w.resource {
		w.resource[i] = -1
	}
	w.rootRoom = make([]int64, len(w.m.linears))

	for ci, l := range w.m.linears {
		if l.lo > NoLowerBound && isDemand(w.m, l.terms) {
			w.demands = append(w.demands, ci)
		}

		if l.hi >= NoUpperBound {
			continue
		}
		var minSum int64
		for _, t := range l.terms {
			tMin, _ := w.termRange(t)
			minSum += tMin
			if t.Coef > coefs[t.Var] && w.m.vars[t.Var].isBool {
				coefs[t.Var] = t.Coef
				w.resource[t.Var] = ci
			}
		}
		w.rootRoom[ci] = l.hi - minSum
	}
}

func isDemand(m *Model, terms []Term) bool {
	hasBool := false
	for _, t := range terms {
		if t.Coef <= 0 {
			return false
		}
		hasBool = hasBool || m.vars[t.Var].isBool
	}
	return hasBool
}

func (w *worker) watch(v Var, ci int) {
	if !slices.Contains(w.watches[v], ci) {
		w.watches[v] = append(w.watches[v], ci)
	}
}

// run explores the whole tree. It returns true when the search completed,
// which proves the incumbent optimal (or the model infeasible), or when a
// satisfaction model found its first solution.
func (w *worker) run(ctx context.Context) bool {
	for i := range w.lo {
		if w.lo[i] > w.hi[i] {
			return true
		}
	}

	for ci := range w.inQueue {
		w.enqueue(ci)
	}

	w.dfs(ctx)
	return !w.stopped || w.satisfied
}

// dfs returns when the subtree is exhausted or the worker must stop
func (w *worker) dfs(ctx context.Context) {
	if w.shouldStop(ctx) {
		return
	}
	w.nodes++

	if w.objIndex >= 0 {
		w.enqueue(w.objIndex)
	}
	if !w.propagate() {
		w.conflicts++
		return
	}

	v, high := w.pickVar()
	if v < 0 {
		w.record()
		return
	}

	lo, hi := w.lo[v], w.hi[v]
	mid := lo + (hi-lo)/2

	// Two branches: v <= mid and v > mid (for 0/1 variables: v = 0 and v = 1)
	branches := [2]func() bool{
		func() bool { return w.setHi(v, mid) },
		func() bool { return w.setLo(v, mid+1) },
	}
	if high {
		branches[0], branches[1] = branches[1], branches[0]
	}

	for _, apply := range branches {
		mark := len(w.trail)
		w.branches++
		if apply() {
			w.dfs(ctx)
		} else {
			w.conflicts++
		}
		w.undo(mark)
		if w.stopped {
			return
		}
	}
}

func (w *worker) shouldStop(ctx context.Context) bool {
	if w.stopped {
		return true
	}
	if w.nodeLimit > 0 && w.branches >= w.nodeLimit {
		w.stopped = true
		return true
	}
	if w.nodes%stopCheckInterval == 0 {
		if ctx.Err() != nil || w.inc.done.Load() {
			w.stopped = true
			return true
		}
	}
	return false
}

// pickVar returns the next variable to branch on, or -1 once every
// variable is fixed, and whether to try the upper branch first.
//
// While a demand constraint is unmet the search fills the one with the least
// slack first, setting its 0/1 variable with the most resource headroom to
// 1. Then it falls back to the fixed branching order.
func (w *worker) pickVar() (Var, bool) {
	if v := w.pickDemand(); v >= 0 {
		return v, true
	}
	for _, v := range w.order {
		if w.lo[v] < w.hi[v] {
			return v, w.valueHigh && w.m.vars[v].isBool
		}
	}
	return -1, false
}

// pickDemand returns a variable of the unmet demand constraint with the
// least slack, or -1 if every demand is met or has no open 0/1 variable
func (w *worker) pickDemand() Var {
	best := -1
	var bestSlack int64
	for _, ci := range w.demands {
		l := w.m.linears[ci]
		var minSum, boolMax int64
		open := false
		for _, t := range l.terms {
			minSum += t.Coef * w.lo[t.Var]
			if w.m.vars[t.Var].isBool {
				boolMax += t.Coef * w.hi[t.Var]
				open = open || w.lo[t.Var] < w.hi[t.Var]
			}
		}
		if minSum >= l.lo || !open {
			continue
		}
		if slack := boolMax - l.lo; best < 0 || slack < bestSlack {
			best, bestSlack = ci, slack
		}
	}
	if best < 0 {
		return -1
	}

	terms := w.m.linears[best].terms
	chosen := Var(-1)
	var bestRoom float64
	for k := range terms {
		t := terms[(k+w.tieOffset)%len(terms)]
		if !w.m.vars[t.Var].isBool || w.lo[t.Var] == w.hi[t.Var] {
			continue
		}
		if room := w.room(t.Var); chosen < 0 || room > bestRoom {
			chosen, bestRoom = t.Var, room
		}
	}
	return chosen
}

// room is the share of its resource constraint's headroom v still has, 1
// for a variable with no resource constraint
func (w *worker) room(v Var) float64 {
	ci := w.resource[v]
	if ci < 0 || w.rootRoom[ci] <= 0 {
		return 1
	}
	l := w.m.linears[ci]
	var minSum int64
	for _, t := range l.terms {
		tMin, _ := w.termRange(t)
		minSum += tMin
	}
	return float64(l.hi-minSum) / float64(w.rootRoom[ci])
}

// record offers the current (fully fixed) assignment to the incumbent
func (w *worker) record() {
	var obj int64
	if w.m.minimize {
		obj = w.m.offset
		for _, t := range w.m.objective {
			obj += t.Coef * w.lo[t.Var]
		}
	}
	w.inc.offer(obj, w.lo)

	if !w.m.minimize {
		// Satisfaction model: the first solution ends the search
		w.inc.done.Store(true)
		w.satisfied = true
		w.stopped = true
	}
}

func (w *worker) enqueue(ci int) {
	if !w.inQueue[ci] {
		w.inQueue[ci] = true
		w.queue = append(w.queue, ci)
	}
}

func (w *worker) clearQueue() {
	for _, ci := range w.queue {
		w.inQueue[ci] = false
	}
	w.queue = w.queue[:0]
}

func (w *worker) setLo(v Var, value int64) bool {
	if value <= w.lo[v] {
		return true
	}
	if value > w.hi[v] {
		return false
	}
	w.trail = append(w.trail, trailEntry{v: v, lo: w.lo[v], hi: w.hi[v]})
	w.lo[v] = value
	for _, ci := range w.watches[v] {
		w.enqueue(ci)
	}
	return true
}

func (w *worker) setHi(v Var, value int64) bool {
	if value >= w.hi[v] {
		return true
	}
	if value < w.lo[v] {
		return false
	}
	w.trail = append(w.trail, trailEntry{v: v, lo: w.lo[v], hi: w.hi[v]})
	w.hi[v] = value
	for _, ci := range w.watches[v] {
		w.enqueue(ci)
	}
	return true
}

func (w *worker) undo(mark int) {
	for i := len(w.trail) - 1; i >= mark; i-- {
		e := w.trail[i]
		w.lo[e.v] = e.lo
		w.hi[e.v] = e.hi
	}
	w.trail = w.trail[:mark]
	w.clearQueue()
}

// propagate runs every queued constraint until a fixpoint or a conflict
func (w *worker) propagate() bool {
	for len(w.queue) > 0 {
		ci := w.queue[0]
		w.queue = w.queue[1:]
		w.inQueue[ci] = false

		var ok bool
		switch {
		case ci < w.numLin:
			l := w.m.linears[ci]
			ok = w.propagateLinear(l.terms, l.lo, l.hi)
		case ci < w.numLin+w.numExt:
			ok = w.propagateExtremum(w.m.extrema[ci-w.numLin])
		default:
			ok = w.propagateObjective()
		}

		if !ok {
			w.clearQueue()
			return false
		}
	}
	// Reuse the backing array
	w.queue = w.queue[:0]
	return true
}

// propagateObjective enforces objective < incumbent
func (w *worker) propagateObjective() bool {
	best, found := w.inc.bound()
	if !found {
		return true
	}
	return w.propagateLinear(w.m.objective, NoLowerBound, best-1-w.m.offset)
}

// propagateLinear tightens the bounds of every term of lo <= sum(terms) <= hi
func (w *worker) propagateLinear(terms []Term, lo, hi int64) bool {
	var minSum, maxSum int64
	for _, t := range terms {
		tMin, tMax := w.termRange(t)
		minSum += tMin
		maxSum += tMax
	}

	if minSum > hi || maxSum < lo {
		return false
	}

	for _, t := range terms {
		if t.Coef == 0 {
			continue
		}
		tMin, tMax := w.termRange(t)

		if hi < NoUpperBound {
			// Coef*x <= hi - (minimum of the other terms)
			bound := hi - (minSum - tMin)
			if t.Coef > 0 {
				if !w.setHi(t.Var, floorDiv(bound, t.Coef)) {
					return false
				}
			} else if !w.setLo(t.Var, ceilDiv(bound, t.Coef)) {
				return false
			}
		}

		if lo > NoLowerBound {
			// Coef*x >= lo - (maximum of the other terms)
			bound := lo - (maxSum - tMax)
			if t.Coef > 0 {
				if !w.setLo(t.Var, ceilDiv(bound, t.Coef)) {
					return false
				}
			} else if !w.setHi(t.Var, floorDiv(bound, t.Coef)) {
				return false
			}
		}
	}

	return true
}

func (w *worker) termRange(t Term) (int64, int64) {
	a := t.Coef * w.lo[t.Var]
	b := t.Coef * w.hi[t.Var]
	if a > b {
		return b, a
	}
	return a, b
}

// propagateExtremum enforces target == max(args) or target == min(args)
func (w *worker) propagateExtremum(e extremum) bool {
	if !e.isMax {
		return w.propagateMin(e)
	}

	argLo, argHi := w.lo[e.args[0]], w.hi[e.args[0]]
	for _, a := range e.args[1:] {
		argLo = max(argLo, w.lo[a])
		argHi = max(argHi, w.hi[a])
	}
	if !w.setLo(e.target, argLo) || !w.setHi(e.target, argHi) {
		return false
	}

	// No argument may exceed the target
	for _, a := range e.args {
		if !w.setHi(a, w.hi[e.target]) {
			return false
		}
	}

	// Some argument must reach the target
	support := Var(-1)
	count := 0
	for _, a := range e.args {
		if w.hi[a] >= w.lo[e.target] {
			support = a
			count++
		}
	}
	switch count {
	case 0:
		return false
	case 1:
		return w.setLo(support, w.lo[e.target])
	}
	return true
}

func (w *worker) propagateMin(e extremum) bool {
	argLo, argHi := w.lo[e.args[0]], w.hi[e.args[0]]
	for _, a := range e.args[1:] {
		argLo = min(argLo, w.lo[a])
		argHi = min(argHi, w.hi[a])
	}
	if !w.setLo(e.target, argLo) || !w.setHi(e.target, argHi) {
		return false
	}

	// No argument may be below the target
	for _, a := range e.args {
		if !w.setLo(a, w.lo[e.target]) {
			return false
		}
	}

	// Some argument must come down to the target
	support := Var(-1)
	count := 0
	for _, a := range e.args {
		if w.lo[a] <= w.hi[e.target] {
			support = a
			count++
		}
	}
	switch count {
	case 0:
		return false
	case 1:
		return w.setHi(support, w.hi[e.target])
	}
	return true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}
