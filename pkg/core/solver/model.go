package solver

import (
	"fmt"
	"math"
)

// Bounds used for constraints without a lower or upper side
const (
	NoLowerBound int64 = math.MinInt64 / 4
	NoUpperBound int64 = math.MaxInt64 / 4
)

// Var identifies a variable declared on a Model
type Var int

// Term is a coefficient applied to a variable inside a linear expression
type Term struct {
	Var  Var
	Coef int64
}

// Sum returns the terms of the expression v1 + v2 + ... + vn
func Sum(vars ...Var) []Term {
	terms := make([]Term, 0, len(vars))
	for _, v := range vars {
		terms = append(terms, Term{Var: v, Coef: 1})
	}
	return terms
}

// WeightedSum returns the terms of c*v1 + c*v2 + ... + c*vn
func WeightedSum(coef int64, vars ...Var) []Term {
	terms := make([]Term, 0, len(vars))
	for _, v := range vars {
		terms = append(terms, Term{Var: v, Coef: coef})
	}
	return terms
}

type variable struct {
	name   string
	lo, hi int64
	isBool bool
}

// linear is lo <= sum(terms) <= hi
type linear struct {
	terms  []Term
	lo, hi int64
}

// extremum is target == max(args) or target == min(args)
type extremum struct {
	target Var
	args   []Var
	isMax  bool
}

// Model is a backend neutral constraint model: integer variables with finite
// domains, linear constraints, min/max equalities and an optional linear
// objective to minimize. A Model is built by one session and must not be
// shared between concurrent builders.
type Model struct {
	vars      []variable
	linears   []linear
	extrema   []extremum
	objective []Term
	offset    int64
	minimize  bool
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{}
}

// NewBoolVar declares a 0/1 variable
func (m *Model) NewBoolVar(name string) Var {
	m.vars = append(m.vars, variable{name: name, lo: 0, hi: 1, isBool: true})
	return Var(len(m.vars) - 1)
}

// NewIntVar declares an integer variable with domain [lo, hi]
func (m *Model) NewIntVar(lo, hi int64, name string) Var {
	m.vars = append(m.vars, variable{name: name, lo: lo, hi: hi})
	return Var(len(m.vars) - 1)
}

// NumVars returns the number of declared variables
func (m *Model) NumVars() int {
	return len(m.vars)
}

// NumConstraints returns the number of posted constraints
func (m *Model) NumConstraints() int {
	return len(m.linears) + len(m.extrema)
}

// Name returns the name a variable was declared with
func (m *Model) Name(v Var) string {
	return m.vars[v].name
}

// Domain returns the declared bounds of a variable, after any Fix calls
func (m *Model) Domain(v Var) (lo, hi int64) {
	return m.vars[v].lo, m.vars[v].hi
}

// Fix restricts a variable to a single value. Fixing a variable to a value
// outside its domain makes the model infeasible.
func (m *Model) Fix(v Var, value int64) {
	vr := &m.vars[v]
	vr.lo = max(vr.lo, value)
	vr.hi = min(vr.hi, value)
	if vr.lo > vr.hi {
		// Keep the domain empty but ordered so the conflict is reported at solve time
		vr.lo, vr.hi = 1, 0
	}
}

// AddLinear posts lo <= sum(terms) <= hi
func (m *Model) AddLinear(terms []Term, lo, hi int64) {
	m.linears = append(m.linears, linear{terms: terms, lo: lo, hi: hi})
}

// AddLessOrEqual posts sum(terms) <= rhs
func (m *Model) AddLessOrEqual(terms []Term, rhs int64) {
	m.AddLinear(terms, NoLowerBound, rhs)
}

// AddGreaterOrEqual posts sum(terms) >= rhs
func (m *Model) AddGreaterOrEqual(terms []Term, rhs int64) {
	m.AddLinear(terms, rhs, NoUpperBound)
}

// AddEquality posts sum(terms) == rhs
func (m *Model) AddEquality(terms []Term, rhs int64) {
	m.AddLinear(terms, rhs, rhs)
}

// AddMaxEquality posts target == max(args)
func (m *Model) AddMaxEquality(target Var, args []Var) {
	m.extrema = append(m.extrema, extremum{target: target, args: args, isMax: true})
}

// AddMinEquality posts target == min(args)
func (m *Model) AddMinEquality(target Var, args []Var) {
	m.extrema = append(m.extrema, extremum{target: target, args: args, isMax: false})
}

// Minimize sets the objective to sum(terms) + offset
func (m *Model) Minimize(terms []Term, offset int64) {
	m.objective = terms
	m.offset = offset
	m.minimize = true
}

// HasObjective reports whether Minimize was called
func (m *Model) HasObjective() bool {
	return m.minimize
}

// Validate checks that every constraint refers to declared variables
func (m *Model) Validate() error {
	checkVar := func(v Var) error {
		if v < 0 || int(v) >= len(m.vars) {
			return fmt.Errorf("unknown variable %d", v)
		}
		return nil
	}

	for i, l := range m.linears {
		if l.lo > l.hi {
			return fmt.Errorf("linear constraint %d has empty range [%d, %d]", i, l.lo, l.hi)
		}
		for _, t := range l.terms {
			if err := checkVar(t.Var); err != nil {
				return fmt.Errorf("linear constraint %d: %w", i, err)
			}
		}
	}

	for i, e := range m.extrema {
		if len(e.args) == 0 {
			return fmt.Errorf("min/max constraint %d has no arguments", i)
		}
		if err := checkVar(e.target); err != nil {
			return fmt.Errorf("min/max constraint %d: %w", i, err)
		}
		for _, a := range e.args {
			if err := checkVar(a); err != nil {
				return fmt.Errorf("min/max constraint %d: %w", i, err)
			}
		}
	}

	for _, t := range m.objective {
		if err := checkVar(t.Var); err != nil {
			return fmt.Errorf("objective: %w", err)
		}
	}

	return nil
}
