package roster

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
)

func newDoctor(id string, role model.Role, maxHours int, skills ...string) model.Doctor {
	return model.Doctor{
		ID:       id,
		Name:     "Dr " + id,
		Role:     role,
		Skills:   model.NewSkillSet(skills...),
		MaxHours: maxHours,
	}
}

func newShift(code string, day model.Day, start, end, hours int, dept model.Department, skill string, minStaff int) model.Shift {
	if end <= start {
		end += model.HoursPerDay
	}
	return model.Shift{
		ID:            code,
		Code:          code,
		Day:           day,
		StartHour:     start,
		EndHour:       end,
		Hours:         hours,
		Department:    dept,
		RequiredSkill: skill,
		MinStaff:      minStaff,
	}
}

// newWeek builds a week whose skill catalog is every skill mentioned
func newWeek(doctors []model.Doctor, shifts []model.Shift) *model.Week {
	var skills []string
	for _, d := range doctors {
		skills = append(skills, d.Skills...)
	}
	for _, s := range shifts {
		skills = append(skills, s.RequiredSkill)
	}
	return &model.Week{
		Doctors: doctors,
		Shifts:  shifts,
		Skills:  model.NewSkillSet(skills...),
	}
}

// mixedWeek has exactly one feasible roster:
//
//	A (icu specialist): MON_N_ICU, WED_24_WARD
//	B (resident):       MON_D_WARD, TUE_D_WARD
//	C (intern, needs a mentor): nothing
func mixedWeek() *model.Week {
	a := newDoctor("A", model.RoleICUSpecialist, 48, "ward", "icu")
	a.TwentyFourAllowed = true
	b := newDoctor("B", model.RoleResident, 40, "ward")
	c := newDoctor("C", model.RoleIntern, 40, "ward")
	c.NeedsMentor = true

	return newWeek(
		[]model.Doctor{a, b, c},
		[]model.Shift{
			newShift("MON_D_WARD", model.Monday, 8, 16, 8, model.DepartmentWard, "ward", 1),
			newShift("MON_N_ICU", model.Monday, 20, 8, 12, model.DepartmentICU, "icu", 1),
			newShift("TUE_D_WARD", model.Tuesday, 8, 16, 8, model.DepartmentWard, "ward", 1),
			newShift("WED_24_WARD", model.Wednesday, 8, 8, 24, model.DepartmentWard, "ward", 1),
		},
	)
}

// hospitalWeek is a full week for twelve doctors: every day has a day ward
// shift for two, a ward night and a 24h ICU duty. Five doctors can take the
// ICU duty and the intern needs a specialist alongside.
func hospitalWeek() *model.Week {
	icu := func(id string, role model.Role, maxHours int) model.Doctor {
		d := newDoctor(id, role, maxHours, "ward", "icu")
		d.TwentyFourAllowed = true
		return d
	}
	intern := newDoctor("I1", model.RoleIntern, 40, "ward")
	intern.NeedsMentor = true

	doctors := []model.Doctor{
		icu("S1", model.RoleICUSpecialist, 56),
		icu("S2", model.RoleICUSpecialist, 56),
		icu("S3", model.RoleICUSpecialist, 56),
		icu("S4", model.RoleSpecialist, 48),
		icu("R1", model.RoleResident, 48),
		newDoctor("R2", model.RoleResident, 48, "ward"),
		newDoctor("R3", model.RoleResident, 48, "ward"),
		newDoctor("R4", model.RoleResident, 48, "ward"),
		newDoctor("R5", model.RoleResident, 48, "ward"),
		newDoctor("R6", model.RoleResident, 40, "ward"),
		newDoctor("R7", model.RoleResident, 40, "ward"),
		intern,
	}

	var shifts []model.Shift
	for _, day := range model.AllDays() {
		prefix := strings.ToUpper(day.String())
		shifts = append(shifts,
			newShift(prefix+"_D_WARD", day, 8, 16, 8, model.DepartmentWard, "ward", 2),
			newShift(prefix+"_N_WARD", day, 20, 8, 12, model.DepartmentWard, "ward", 1),
			newShift(prefix+"_24_ICU", day, 8, 8, 24, model.DepartmentICU, "icu", 1),
		)
	}
	return newWeek(doctors, shifts)
}

func solveWeek(t *testing.T, week *model.Week, opts Options) *Result {
	t.Helper()

	session, err := NewSession(week, opts)
	require.NoError(t, err)

	result, err := session.Solve(context.Background(), solver.NewEngine(), solver.Parameters{NumWorkers: 1})
	require.NoError(t, err)
	return result
}

func assignedDoctors(result *Result, shiftID string) []string {
	var ids []string
	for _, row := range result.Schedule {
		if row.ShiftID == shiftID && !row.Unfilled {
			ids = append(ids, row.DoctorID)
		}
	}
	return ids
}

func ruleNames(violations []Violation) []string {
	var names []string
	for _, v := range violations {
		names = append(names, v.Rule)
	}
	return names
}

// stubBackend returns a fixed response for any model
type stubBackend struct {
	status solver.Status
	value  int64
	err    error
}

func (b *stubBackend) Solve(ctx context.Context, m *solver.Model, params solver.Parameters) (*solver.Response, error) {
	if b.err != nil {
		return nil, b.err
	}
	resp := &solver.Response{Status: b.status}
	if b.status.HasSolution() {
		resp.Values = make([]int64, m.NumVars())
		for i := range resp.Values {
			resp.Values[i] = b.value
		}
	}
	return resp, nil
}
