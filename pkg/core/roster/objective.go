package roster

import (
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
)

// Workload ratio is fixed point: RatioScale means working exactly at the cap
const (
	RatioScale     = 1000
	ratioTolerance = 50
	ratioMax       = 2 * RatioScale
)

// fairness holds the auxiliary variables derived from the assignment matrix
type fairness struct {
	worked []solver.Var
	nights []solver.Var
	ratios []solver.Var

	maxNights, minNights, nightSpread solver.Var
	maxRatio, minRatio, ratioSpread   solver.Var
}

// ratioBand returns the rounding tolerance of a doctor's workload ratio.
// ratio*cap must land within the band around 1000*worked, which needs at
// least cap/2 for an integer ratio to exist.
func ratioBand(maxHours int) int64 {
	return max(ratioTolerance, int64(maxHours)/2)
}

// buildFairness derives per-doctor worked hours, night counts and workload
// ratios plus their max/min/spread. Returns nil for an empty pool.
func buildFairness(s *Session) *fairness {
	if len(s.week.Doctors) == 0 {
		return nil
	}

	m := s.model
	numNights := int64(len(s.nights))
	f := &fairness{}

	for d, doc := range s.week.Doctors {
		worked := m.NewIntVar(0, int64(doc.MaxHours), "worked_hours_"+doc.ID)
		terms := []solver.Term{{Var: worked, Coef: -1}}
		for sh, shift := range s.week.Shifts {
			terms = append(terms, solver.Term{Var: s.x[d][sh], Coef: int64(shift.Hours)})
		}
		m.AddEquality(terms, 0)
		f.worked = append(f.worked, worked)

		nights := m.NewIntVar(0, numNights, "night_count_"+doc.ID)
		m.AddEquality(append(solver.Sum(s.shiftVars(d, s.nights)...), solver.Term{Var: nights, Coef: -1}), 0)
		f.nights = append(f.nights, nights)

		// ratio*cap - 1000*worked within +-band
		ratio := m.NewIntVar(0, ratioMax, "workload_ratio_"+doc.ID)
		band := ratioBand(doc.MaxHours)
		m.AddLinear([]solver.Term{
			{Var: ratio, Coef: int64(doc.MaxHours)},
			{Var: worked, Coef: -RatioScale},
		}, -band, band)
		f.ratios = append(f.ratios, ratio)
	}

	f.maxNights = m.NewIntVar(0, numNights, "max_nights")
	f.minNights = m.NewIntVar(0, numNights, "min_nights")
	m.AddMaxEquality(f.maxNights, f.nights)
	m.AddMinEquality(f.minNights, f.nights)
	f.nightSpread = m.NewIntVar(0, numNights, "night_spread")
	m.AddEquality(spreadTerms(f.nightSpread, f.maxNights, f.minNights), 0)

	f.maxRatio = m.NewIntVar(0, ratioMax, "max_ratio")
	f.minRatio = m.NewIntVar(0, ratioMax, "min_ratio")
	m.AddMaxEquality(f.maxRatio, f.ratios)
	m.AddMinEquality(f.minRatio, f.ratios)
	f.ratioSpread = m.NewIntVar(0, ratioMax, "ratio_spread")
	m.AddEquality(spreadTerms(f.ratioSpread, f.maxRatio, f.minRatio), 0)

	return f
}

// spreadTerms is spread - hi + lo, posted == 0
func spreadTerms(spread, hi, lo solver.Var) []solver.Term {
	return []solver.Term{
		{Var: spread, Coef: 1},
		{Var: hi, Coef: -1},
		{Var: lo, Coef: 1},
	}
}

// buildObjective composes
//
//	w_pref*sum(preferences) + w_night*night_spread + w_ratio*ratio_spread + w_short*sum(shortfall)
//
// where a like contributes -x and a dislike +x and w_short is shortfallWeight.
func (s *Session) buildObjective() {
	w := s.opts.Weights
	var terms []solver.Term

	for _, p := range s.week.Preferences {
		x := s.x[s.doctorPos[p.DoctorID]][s.shiftPos[p.ShiftID]]
		switch p.Polarity {
		case model.PolarityLike:
			terms = append(terms, solver.Term{Var: x, Coef: -w.Preference})
		case model.PolarityDislike:
			terms = append(terms, solver.Term{Var: x, Coef: w.Preference})
		}
	}

	if s.fairness != nil {
		terms = append(terms,
			solver.Term{Var: s.fairness.nightSpread, Coef: w.NightSpread},
			solver.Term{Var: s.fairness.ratioSpread, Coef: w.RatioSpread},
		)
	}

	shortfall := s.shortfallWeight()
	for sh := range s.week.Shifts {
		if missing, ok := s.shortfall[sh]; ok {
			terms = append(terms, solver.Term{Var: missing, Coef: shortfall})
		}
	}

	s.model.Minimize(terms, 0)
}

// shortfallWeight is the penalty of one unfilled slot: the configured weight,
// raised above the widest range the other terms can cover together so a
// roster with fewer unfilled slots always has the lower objective
func (s *Session) shortfallWeight() int64 {
	w := s.opts.Weights
	others := w.Preference * int64(len(s.week.Preferences))
	if s.fairness != nil {
		others += w.NightSpread*int64(len(s.nights)) + w.RatioSpread*ratioMax
	}
	return max(w.Shortfall, others+1)
}
