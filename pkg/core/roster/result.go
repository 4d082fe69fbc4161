package roster

import (
	"time"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
)

// Result is the outcome of one roster solve
type Result struct {
	Status solver.Status

	// Roster, Schedule, Doctors and Shortfalls are only set when Status has a solution
	Roster     *Roster
	Schedule   []ScheduleRow
	Doctors    []DoctorStats
	Shortfalls []Shortfall

	Summary Summary
}

// HasSolution reports whether a roster was produced
func (r *Result) HasSolution() bool {
	return r.Status.HasSolution()
}

// TotalShortfall is the number of unfilled minimum staffing slots
func (r *Result) TotalShortfall() int {
	total := 0
	for _, s := range r.Shortfalls {
		total += s.Missing
	}
	return total
}

// ScheduleRow is one doctor on one shift, or an unfilled shift
type ScheduleRow struct {
	Day        model.Day
	ShiftID    string
	ShiftCode  string
	Department model.Department
	StartHour  int
	EndHour    int
	Hours      int

	// DoctorID, Doctor and Role are empty when Unfilled
	DoctorID string
	Doctor   string
	Role     model.Role
	Unfilled bool
}

// Shortfall is a shift staffed below its minimum
type Shortfall struct {
	ShiftID   string
	ShiftCode string
	Day       model.Day
	Required  int
	Assigned  int
	Missing   int
}

// Summary holds the global statistics of a solve
type Summary struct {
	Status solver.Status

	// ObjectiveValue is nil when no solution exists
	ObjectiveValue *int64

	Conflicts int64
	Branches  int64
	WallTime  time.Duration

	MaxNights   int
	MinNights   int
	NightSpread int
	MaxRatio    int
	MinRatio    int
	RatioSpread int

	LikesSatisfied   int
	DislikesViolated int
	TotalShortfall   int
}

// extract turns a solver response into a result. It only reads the response.
func (s *Session) extract(resp *solver.Response) *Result {
	result := &Result{
		Status: resp.Status,
		Summary: Summary{
			Status:    resp.Status,
			Conflicts: resp.Conflicts,
			Branches:  resp.Branches,
			WallTime:  resp.WallTime,
		},
	}
	if !resp.Status.HasSolution() {
		return result
	}

	objective := resp.ObjectiveValue
	result.Summary.ObjectiveValue = &objective

	roster := NewRoster(s.week)
	for d := range s.x {
		for sh := range s.x[d] {
			roster.assigned[d][sh] = resp.BoolValue(s.x[d][sh])
		}
	}
	result.Roster = roster
	result.Schedule = roster.Schedule()
	result.Doctors = roster.DoctorStats()
	result.Shortfalls = roster.Shortfalls()

	if f := s.fairness; f != nil {
		result.Summary.MaxNights = int(resp.Value(f.maxNights))
		result.Summary.MinNights = int(resp.Value(f.minNights))
		result.Summary.NightSpread = int(resp.Value(f.nightSpread))
		result.Summary.MaxRatio = int(resp.Value(f.maxRatio))
		result.Summary.MinRatio = int(resp.Value(f.minRatio))
		result.Summary.RatioSpread = int(resp.Value(f.ratioSpread))
	}

	for _, st := range result.Doctors {
		result.Summary.LikesSatisfied += st.LikesSatisfied
		result.Summary.DislikesViolated += st.DislikesViolated
	}
	result.Summary.TotalShortfall = result.TotalShortfall()

	return result
}

// Schedule lists the roster in chronological order: one row per assigned
// doctor, or a single unfilled row for a shift nobody works
func (r *Roster) Schedule() []ScheduleRow {
	var rows []ScheduleRow
	for _, sh := range r.chronological {
		shift := r.week.Shifts[sh]
		row := ScheduleRow{
			Day:        shift.Day,
			ShiftID:    shift.ID,
			ShiftCode:  shift.Code,
			Department: shift.Department,
			StartHour:  shift.StartHour,
			EndHour:    shift.EndHour,
			Hours:      shift.Hours,
		}

		filled := false
		for d, doc := range r.week.Doctors {
			if !r.assigned[d][sh] {
				continue
			}
			filled = true
			assigned := row
			assigned.DoctorID = doc.ID
			assigned.Doctor = doc.Name
			assigned.Role = doc.Role
			rows = append(rows, assigned)
		}

		if !filled {
			row.Unfilled = true
			rows = append(rows, row)
		}
	}
	return rows
}

// Shortfalls returns every shift staffed below its minimum
func (r *Roster) Shortfalls() []Shortfall {
	var out []Shortfall
	for _, sh := range r.chronological {
		shift := r.week.Shifts[sh]
		if n := r.staffCount(sh); n < shift.MinStaff {
			out = append(out, Shortfall{
				ShiftID:   shift.ID,
				ShiftCode: shift.Code,
				Day:       shift.Day,
				Required:  shift.MinStaff,
				Assigned:  n,
				Missing:   shift.MinStaff - n,
			})
		}
	}
	return out
}
