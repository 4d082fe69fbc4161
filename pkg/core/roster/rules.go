package roster

import (
	"fmt"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
)

// SkillRule keeps doctors off shifts whose required skill they lack
type SkillRule struct{}

func (SkillRule) Name() string {
	return "Skill"
}

func (SkillRule) Post(s *Session) {
	for d, doc := range s.week.Doctors {
		for sh, shift := range s.week.Shifts {
			if !doc.Skills.Has(shift.RequiredSkill) {
				s.forbid(d, sh)
			}
		}
	}
}

func (rule SkillRule) Check(r *Roster) []Violation {
	var violations []Violation
	for d, doc := range r.week.Doctors {
		for sh, shift := range r.week.Shifts {
			if r.assigned[d][sh] && !doc.Skills.Has(shift.RequiredSkill) {
				violations = append(violations, r.violation(rule, d, sh,
					"%s lacks skill %q required by %s", doc.ID, shift.RequiredSkill, shift.Code))
			}
		}
	}
	return violations
}

// StaffingRule requires every shift to have at least its minimum staff and
// at most ExtraStaff doctors more (UnlimitedExtraStaff for no ceiling).
//
// In relaxed mode each shift gets a shortfall variable instead:
// sum(x) + shortfall >= min_staff, and the shortfall is penalised in the
// objective. Check then only reports overstaffing since shortfall is part of
// the result.
type StaffingRule struct {
	Relaxed    bool
	ExtraStaff int
}

func (StaffingRule) Name() string {
	return "Staffing"
}

// ceiling returns the maximum staff of a shift and whether there is one
func (rule StaffingRule) ceiling(shift model.Shift) (int, bool) {
	if rule.ExtraStaff == UnlimitedExtraStaff {
		return 0, false
	}
	return shift.MinStaff + rule.ExtraStaff, true
}

func (rule StaffingRule) Post(s *Session) {
	for sh, shift := range s.week.Shifts {
		vars := s.doctorVars(sh)

		if limit, ok := rule.ceiling(shift); ok {
			s.model.AddLessOrEqual(solver.Sum(vars...), int64(limit))
		}

		if shift.MinStaff <= 0 {
			continue
		}
		terms := solver.Sum(vars...)
		if rule.Relaxed {
			missing := s.model.NewIntVar(0, int64(shift.MinStaff), "shortfall_"+shift.ID)
			s.shortfall[sh] = missing
			terms = append(terms, solver.Term{Var: missing, Coef: 1})
		}
		s.model.AddGreaterOrEqual(terms, int64(shift.MinStaff))
	}
}

func (rule StaffingRule) Check(r *Roster) []Violation {
	var violations []Violation
	for sh, shift := range r.week.Shifts {
		n := r.staffCount(sh)
		if !rule.Relaxed && n < shift.MinStaff {
			violations = append(violations, r.violation(rule, -1, sh,
				"%s has %d doctor(s), needs %d", shift.Code, n, shift.MinStaff))
		}
		if limit, ok := rule.ceiling(shift); ok && n > limit {
			violations = append(violations, r.violation(rule, -1, sh,
				"%s has %d doctor(s), at most %d allowed", shift.Code, n, limit))
		}
	}
	return violations
}

// OneShiftPerDayRule allows at most one shift (ordinary or 24h) per doctor per day
type OneShiftPerDayRule struct{}

func (OneShiftPerDayRule) Name() string {
	return "OneShiftPerDay"
}

func (OneShiftPerDayRule) Post(s *Session) {
	for d := range s.week.Doctors {
		for _, day := range model.AllDays() {
			if shifts := s.shiftsByDay[day]; len(shifts) > 1 {
				s.model.AddLessOrEqual(solver.Sum(s.shiftVars(d, shifts)...), 1)
			}
		}
	}
}

func (rule OneShiftPerDayRule) Check(r *Roster) []Violation {
	var violations []Violation
	for d, doc := range r.week.Doctors {
		for _, day := range model.AllDays() {
			if n := r.countAssigned(d, r.shiftsByDay[day]); n > 1 {
				v := r.violation(rule, d, -1, "%s works %d shifts on %s", doc.ID, n, day)
				v.Day = day
				violations = append(violations, v)
			}
		}
	}
	return violations
}

// RestRule forbids a doctor from working two shifts with a positive gap
// shorter than MinHours between the end of one and the start of the other
type RestRule struct {
	MinHours int
}

func (RestRule) Name() string {
	return "Rest"
}

func (rule RestRule) conflictingPairs(shifts []model.Shift) [][2]int {
	var pairs [][2]int
	for a := range shifts {
		for b := a + 1; b < len(shifts); b++ {
			if restConflict(shifts[a], shifts[b], rule.MinHours) {
				pairs = append(pairs, [2]int{a, b})
			}
		}
	}
	return pairs
}

func (rule RestRule) Post(s *Session) {
	pairs := rule.conflictingPairs(s.week.Shifts)
	for d := range s.week.Doctors {
		for _, p := range pairs {
			s.model.AddLessOrEqual(solver.Sum(s.x[d][p[0]], s.x[d][p[1]]), 1)
		}
	}
}

func (rule RestRule) Check(r *Roster) []Violation {
	var violations []Violation
	pairs := rule.conflictingPairs(r.week.Shifts)
	for d, doc := range r.week.Doctors {
		for _, p := range pairs {
			if r.assigned[d][p[0]] && r.assigned[d][p[1]] {
				violations = append(violations, r.violation(rule, d, p[1],
					"%s has less than %dh rest between %s and %s",
					doc.ID, rule.MinHours, r.week.Shifts[p[0]].Code, r.week.Shifts[p[1]].Code))
			}
		}
	}
	return violations
}

// HourCapRule keeps each doctor's worked hours within their weekly maximum
type HourCapRule struct{}

func (HourCapRule) Name() string {
	return "HourCap"
}

func (HourCapRule) Post(s *Session) {
	for d, doc := range s.week.Doctors {
		terms := make([]solver.Term, 0, len(s.week.Shifts))
		for sh, shift := range s.week.Shifts {
			terms = append(terms, solver.Term{Var: s.x[d][sh], Coef: int64(shift.Hours)})
		}
		s.model.AddLessOrEqual(terms, int64(doc.MaxHours))
	}
}

func (rule HourCapRule) Check(r *Roster) []Violation {
	var violations []Violation
	for d, doc := range r.week.Doctors {
		if worked := r.workedHours(d); worked > doc.MaxHours {
			violations = append(violations, r.violation(rule, d, -1,
				"%s works %dh, cap is %dh", doc.ID, worked, doc.MaxHours))
		}
	}
	return violations
}

// MentorRule lets a doctor who needs a mentor work a shift only if a
// specialist works the same shift
type MentorRule struct{}

func (MentorRule) Name() string {
	return "Mentor"
}

func (MentorRule) Post(s *Session) {
	for d, doc := range s.week.Doctors {
		// A specialist covers themselves
		if !doc.NeedsMentor || doc.Role.IsSpecialist() {
			continue
		}
		for sh := range s.week.Shifts {
			terms := []solver.Term{{Var: s.x[d][sh], Coef: 1}}
			for _, sp := range s.specialists {
				terms = append(terms, solver.Term{Var: s.x[sp][sh], Coef: -1})
			}
			s.model.AddLessOrEqual(terms, 0)
		}
	}
}

func (rule MentorRule) Check(r *Roster) []Violation {
	var violations []Violation
	for d, doc := range r.week.Doctors {
		if !doc.NeedsMentor || doc.Role.IsSpecialist() {
			continue
		}
		for sh, shift := range r.week.Shifts {
			if !r.assigned[d][sh] {
				continue
			}
			covered := false
			for _, sp := range r.specialists {
				if r.assigned[sp][sh] {
					covered = true
					break
				}
			}
			if !covered {
				violations = append(violations, r.violation(rule, d, sh,
					"%s works %s without a specialist", doc.ID, shift.Code))
			}
		}
	}
	return violations
}

// NightWindowRule bounds night and 24h shifts in every rolling window of
// Days consecutive days
type NightWindowRule struct {
	Days      int
	MaxNights int
}

func (NightWindowRule) Name() string {
	return "NightWindow"
}

func (rule NightWindowRule) windowShifts(idx *index, start model.Day) []int {
	var shifts []int
	for day := start; day < start+model.Day(rule.Days); day++ {
		shifts = append(shifts, idx.nightsByDay[day]...)
	}
	return shifts
}

func (rule NightWindowRule) Post(s *Session) {
	for _, start := range windows(rule.Days) {
		shifts := rule.windowShifts(s.index, start)
		if len(shifts) <= rule.MaxNights {
			continue
		}
		for d := range s.week.Doctors {
			s.model.AddLessOrEqual(solver.Sum(s.shiftVars(d, shifts)...), int64(rule.MaxNights))
		}
	}
}

func (rule NightWindowRule) Check(r *Roster) []Violation {
	var violations []Violation
	for _, start := range windows(rule.Days) {
		shifts := rule.windowShifts(r.index, start)
		for d, doc := range r.week.Doctors {
			if n := r.countAssigned(d, shifts); n > rule.MaxNights {
				v := r.violation(rule, d, -1, "%s works %d nights in the %d days from %s, max is %d",
					doc.ID, n, rule.Days, start, rule.MaxNights)
				v.Day = start
				violations = append(violations, v)
			}
		}
	}
	return violations
}

// RecoveryDayRule keeps a doctor off every shift on the day after a night shift
type RecoveryDayRule struct{}

func (RecoveryDayRule) Name() string {
	return "RecoveryDay"
}

func (RecoveryDayRule) Post(s *Session) {
	for day := model.Monday; day < model.Sunday; day++ {
		nights := s.nightsByDay[day]
		next := s.shiftsByDay[day+1]
		if len(nights) == 0 || len(next) == 0 {
			continue
		}
		for d := range s.week.Doctors {
			vars := append(s.shiftVars(d, nights), s.shiftVars(d, next)...)
			s.model.AddLessOrEqual(solver.Sum(vars...), 1)
		}
	}
}

func (rule RecoveryDayRule) Check(r *Roster) []Violation {
	var violations []Violation
	for day := model.Monday; day < model.Sunday; day++ {
		for d, doc := range r.week.Doctors {
			if r.countAssigned(d, r.nightsByDay[day]) == 0 {
				continue
			}
			for _, sh := range r.shiftsByDay[day+1] {
				if r.assigned[d][sh] {
					violations = append(violations, r.violation(rule, d, sh,
						"%s works %s the day after a night shift", doc.ID, r.week.Shifts[sh].Code))
				}
			}
		}
	}
	return violations
}

// WorkedDaysRule limits the number of days in the week a doctor is rostered.
// Each day gets a "works" indicator w linked to the day's shifts by
// sum(x) >= w and sum(x) <= M*w, with M the number of shifts that day.
type WorkedDaysRule struct {
	MaxDays int
}

func (WorkedDaysRule) Name() string {
	return "WorkedDays"
}

func (rule WorkedDaysRule) Post(s *Session) {
	for d, doc := range s.week.Doctors {
		var works []solver.Var
		for _, day := range model.AllDays() {
			shifts := s.shiftsByDay[day]
			if len(shifts) == 0 {
				continue
			}
			w := s.model.NewBoolVar(fmt.Sprintf("works_%s_%s", doc.ID, day))
			works = append(works, w)

			dayVars := s.shiftVars(d, shifts)
			atLeast := append(solver.Sum(dayVars...), solver.Term{Var: w, Coef: -1})
			atMost := append(solver.Sum(dayVars...), solver.Term{Var: w, Coef: -int64(len(shifts))})
			s.model.AddGreaterOrEqual(atLeast, 0)
			s.model.AddLessOrEqual(atMost, 0)
		}
		if len(works) > 0 {
			s.model.AddLessOrEqual(solver.Sum(works...), int64(rule.MaxDays))
		}
	}
}

func (rule WorkedDaysRule) Check(r *Roster) []Violation {
	var violations []Violation
	for d, doc := range r.week.Doctors {
		days := 0
		for _, day := range model.AllDays() {
			if r.countAssigned(d, r.shiftsByDay[day]) > 0 {
				days++
			}
		}
		if days > rule.MaxDays {
			violations = append(violations, r.violation(rule, d, -1,
				"%s works on %d days, max is %d", doc.ID, days, rule.MaxDays))
		}
	}
	return violations
}

// TwentyFourEligibilityRule keeps doctors not cleared for 24h duties off them
type TwentyFourEligibilityRule struct{}

func (TwentyFourEligibilityRule) Name() string {
	return "TwentyFourEligibility"
}

func (TwentyFourEligibilityRule) Post(s *Session) {
	for d, doc := range s.week.Doctors {
		if doc.TwentyFourAllowed {
			continue
		}
		for _, sh := range s.twentyFours {
			s.forbid(d, sh)
		}
	}
}

func (rule TwentyFourEligibilityRule) Check(r *Roster) []Violation {
	var violations []Violation
	for d, doc := range r.week.Doctors {
		if doc.TwentyFourAllowed {
			continue
		}
		for _, sh := range r.twentyFours {
			if r.assigned[d][sh] {
				violations = append(violations, r.violation(rule, d, sh,
					"%s is not eligible for 24h duty %s", doc.ID, r.week.Shifts[sh].Code))
			}
		}
	}
	return violations
}

// UnavailabilityRule keeps doctors off their unavailable days and shifts
type UnavailabilityRule struct{}

func (UnavailabilityRule) Name() string {
	return "Unavailability"
}

func (UnavailabilityRule) Post(s *Session) {
	for _, u := range s.week.UnavailableDays {
		d := s.doctorPos[u.DoctorID]
		for _, sh := range s.shiftsByDay[u.Day] {
			s.forbid(d, sh)
		}
	}
	for _, u := range s.week.UnavailableShifts {
		s.forbid(s.doctorPos[u.DoctorID], s.shiftPos[u.ShiftID])
	}
}

func (rule UnavailabilityRule) Check(r *Roster) []Violation {
	var violations []Violation
	for _, u := range r.week.UnavailableDays {
		d := r.doctorPos[u.DoctorID]
		for _, sh := range r.shiftsByDay[u.Day] {
			if r.assigned[d][sh] {
				violations = append(violations, r.violation(rule, d, sh,
					"%s is unavailable on %s", u.DoctorID, u.Day))
			}
		}
	}
	for _, u := range r.week.UnavailableShifts {
		d, sh := r.doctorPos[u.DoctorID], r.shiftPos[u.ShiftID]
		if r.assigned[d][sh] {
			violations = append(violations, r.violation(rule, d, sh,
				"%s is unavailable for %s", u.DoctorID, r.week.Shifts[sh].Code))
		}
	}
	return violations
}
