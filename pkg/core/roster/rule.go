package roster

import (
	"fmt"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// Violation is a hard rule broken by a concrete roster
type Violation struct {
	Rule        string
	DoctorID    string
	ShiftID     string
	Day         model.Day
	Description string
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s", v.Rule, v.Description)
}

// Rule is a hard constraint on the roster.
// Post adds the rule to a session's constraint model. Check independently
// re-evaluates the rule against a concrete roster, so every solution handed
// out can be verified without trusting the solver.
type Rule interface {
	// Name returns a short identifier for this rule
	Name() string

	// Post adds the rule's constraints over the session's decision variables
	Post(s *Session)

	// Check returns every violation of the rule in the roster (empty if valid)
	Check(r *Roster) []Violation
}

// HardRules returns the rule set every roster must satisfy, in posting order
func HardRules(opts Options) []Rule {
	return []Rule{
		SkillRule{},
		StaffingRule{Relaxed: opts.RelaxedStaffing, ExtraStaff: opts.Limits.ExtraStaff},
		OneShiftPerDayRule{},
		RestRule{MinHours: opts.Limits.MinRestHours},
		HourCapRule{},
		MentorRule{},
		NightWindowRule{Days: opts.Limits.NightWindowDays, MaxNights: opts.Limits.MaxNightsInWindow},
		RecoveryDayRule{},
		WorkedDaysRule{MaxDays: opts.Limits.MaxWorkedDays},
		TwentyFourEligibilityRule{},
		UnavailabilityRule{},
	}
}

// Roster is a concrete assignment of doctors to the shifts of a week
type Roster struct {
	*index
	assigned [][]bool // [doctor][shift]
}

// NewRoster creates an empty roster for the week
func NewRoster(week *model.Week) *Roster {
	r := &Roster{
		index:    newIndex(week),
		assigned: make([][]bool, len(week.Doctors)),
	}
	for d := range r.assigned {
		r.assigned[d] = make([]bool, len(week.Shifts))
	}
	return r
}

// Week returns the week the roster was built for
func (r *Roster) Week() *model.Week {
	return r.week
}

// Assign puts a doctor on a shift
func (r *Roster) Assign(doctorID, shiftID string) error {
	d, ok := r.doctorPos[doctorID]
	if !ok {
		return fmt.Errorf("unknown doctor %q", doctorID)
	}
	s, ok := r.shiftPos[shiftID]
	if !ok {
		return fmt.Errorf("unknown shift %q", shiftID)
	}
	r.assigned[d][s] = true
	return nil
}

// IsAssigned returns true if the doctor works the shift
func (r *Roster) IsAssigned(doctorID, shiftID string) bool {
	d, ok := r.doctorPos[doctorID]
	if !ok {
		return false
	}
	s, ok := r.shiftPos[shiftID]
	if !ok {
		return false
	}
	return r.assigned[d][s]
}

// Assignments returns every (doctor, shift) pair in chronological shift order
func (r *Roster) Assignments() []Assignment {
	var out []Assignment
	for _, s := range r.chronological {
		for d := range r.week.Doctors {
			if r.assigned[d][s] {
				out = append(out, Assignment{
					DoctorID: r.week.Doctors[d].ID,
					ShiftID:  r.week.Shifts[s].ID,
				})
			}
		}
	}
	return out
}

// Verify checks the roster against every rule and returns all violations
func (r *Roster) Verify(rules []Rule) []Violation {
	var violations []Violation
	for _, rule := range rules {
		violations = append(violations, rule.Check(r)...)
	}
	return violations
}

// Assignment is one doctor working one shift
type Assignment struct {
	DoctorID string
	ShiftID  string
}

func (r *Roster) staffCount(s int) int {
	n := 0
	for d := range r.assigned {
		if r.assigned[d][s] {
			n++
		}
	}
	return n
}

func (r *Roster) countAssigned(d int, shifts []int) int {
	n := 0
	for _, s := range shifts {
		if r.assigned[d][s] {
			n++
		}
	}
	return n
}

func (r *Roster) workedHours(d int) int {
	total := 0
	for s, on := range r.assigned[d] {
		if on {
			total += r.week.Shifts[s].Hours
		}
	}
	return total
}

func (r *Roster) violation(rule Rule, d, s int, format string, args ...any) Violation {
	v := Violation{
		Rule:        rule.Name(),
		Description: fmt.Sprintf(format, args...),
	}
	if d >= 0 {
		v.DoctorID = r.week.Doctors[d].ID
	}
	if s >= 0 {
		v.ShiftID = r.week.Shifts[s].ID
		v.Day = r.week.Shifts[s].Day
	}
	return v
}
