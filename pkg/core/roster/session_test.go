package roster

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
)

func TestSolve_MissingSkillIsInfeasible(t *testing.T) {
	week := newWeek(
		[]model.Doctor{newDoctor("A", model.RoleResident, 40, "ward")},
		[]model.Shift{newShift("MON_D_ICU", model.Monday, 8, 16, 8, model.DepartmentICU, "icu", 1)},
	)

	result := solveWeek(t, week, DefaultOptions())

	assert.Equal(t, solver.StatusInfeasible, result.Status)
	assert.False(t, result.HasSolution())
	assert.Nil(t, result.Schedule)
	assert.Nil(t, result.Summary.ObjectiveValue)
	assert.Equal(t, "INFEASIBLE", result.Summary.Status.String())
}

func TestSolve_MissingSkillWithoutMinimumStaffIsFeasible(t *testing.T) {
	week := newWeek(
		[]model.Doctor{newDoctor("A", model.RoleResident, 40, "ward")},
		[]model.Shift{newShift("MON_D_ICU", model.Monday, 8, 16, 8, model.DepartmentICU, "icu", 0)},
	)

	result := solveWeek(t, week, DefaultOptions())

	require.Equal(t, solver.StatusOptimal, result.Status)
	require.Len(t, result.Schedule, 1)
	assert.True(t, result.Schedule[0].Unfilled)
	assert.Empty(t, result.Schedule[0].DoctorID)
}

func TestSolve_TwoEligibleDoctorsOneShift(t *testing.T) {
	week := newWeek(
		[]model.Doctor{
			newDoctor("A", model.RoleResident, 40, "ward"),
			newDoctor("B", model.RoleResident, 40, "ward"),
		},
		[]model.Shift{newShift("MON_D_WARD", model.Monday, 8, 16, 8, model.DepartmentWard, "ward", 1)},
	)

	result := solveWeek(t, week, DefaultOptions())

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.Len(t, assignedDoctors(result, "MON_D_WARD"), 1)
	assert.Len(t, result.Roster.Assignments(), 1)

	// Ratio 199 for the doctor on duty against 1 for the other, weighted 8
	require.NotNil(t, result.Summary.ObjectiveValue)
	assert.Equal(t, int64(8*198), *result.Summary.ObjectiveValue)
	assert.Equal(t, 198, result.Summary.RatioSpread)
}

func TestSolve_NoShiftTheDayAfterANight(t *testing.T) {
	shifts := []model.Shift{
		newShift("MON_N_WARD", model.Monday, 20, 8, 12, model.DepartmentWard, "ward", 1),
		newShift("TUE_D_WARD", model.Tuesday, 8, 20, 12, model.DepartmentWard, "ward", 1),
	}

	t.Run("two doctors split the shifts", func(t *testing.T) {
		week := newWeek(
			[]model.Doctor{
				newDoctor("A", model.RoleResident, 48, "ward"),
				newDoctor("B", model.RoleResident, 48, "ward"),
			},
			shifts,
		)

		result := solveWeek(t, week, DefaultOptions())

		require.Equal(t, solver.StatusOptimal, result.Status)
		night := assignedDoctors(result, "MON_N_WARD")
		day := assignedDoctors(result, "TUE_D_WARD")
		require.Len(t, night, 1)
		require.Len(t, day, 1)
		assert.NotEqual(t, night[0], day[0])
	})

	t.Run("a single doctor cannot cover both", func(t *testing.T) {
		week := newWeek([]model.Doctor{newDoctor("A", model.RoleResident, 48, "ward")}, shifts)

		result := solveWeek(t, week, DefaultOptions())

		assert.Equal(t, solver.StatusInfeasible, result.Status)
	})
}

func TestSolve_MixedWeek(t *testing.T) {
	result := solveWeek(t, mixedWeek(), DefaultOptions())

	require.Equal(t, solver.StatusOptimal, result.Status)

	assert.Equal(t, []string{"B"}, assignedDoctors(result, "MON_D_WARD"))
	assert.Equal(t, []string{"A"}, assignedDoctors(result, "MON_N_ICU"))
	assert.Equal(t, []string{"B"}, assignedDoctors(result, "TUE_D_WARD"))
	assert.Equal(t, []string{"A"}, assignedDoctors(result, "WED_24_WARD"))

	// Night spread 2 (x6) and ratio spread 749 - 1 (x8)
	require.NotNil(t, result.Summary.ObjectiveValue)
	assert.Equal(t, int64(6*2+8*748), *result.Summary.ObjectiveValue)

	assert.Equal(t, 2, result.Summary.MaxNights)
	assert.Equal(t, 0, result.Summary.MinNights)
	assert.Equal(t, 2, result.Summary.NightSpread)
	assert.Empty(t, result.Shortfalls)
}

func TestSolve_ScheduleIsChronological(t *testing.T) {
	week := mixedWeek()
	// Same shifts listed out of order
	week.Shifts = []model.Shift{week.Shifts[3], week.Shifts[1], week.Shifts[2], week.Shifts[0]}

	result := solveWeek(t, week, DefaultOptions())
	require.True(t, result.HasSolution())

	var codes []string
	for _, row := range result.Schedule {
		codes = append(codes, row.ShiftCode)
	}
	assert.Equal(t, []string{"MON_D_WARD", "MON_N_ICU", "TUE_D_WARD", "WED_24_WARD"}, codes)
}

func TestSolve_PreferencesAreCounted(t *testing.T) {
	week := mixedWeek()
	week.Preferences = []model.Preference{
		{DoctorID: "B", ShiftID: "MON_D_WARD", Polarity: model.PolarityDislike},
		{DoctorID: "A", ShiftID: "WED_24_WARD", Polarity: model.PolarityLike},
		{DoctorID: "C", ShiftID: "TUE_D_WARD", Polarity: model.PolarityLike},
	}

	result := solveWeek(t, week, DefaultOptions())
	require.Equal(t, solver.StatusOptimal, result.Status)

	// +3 for the violated dislike, -3 for the satisfied like
	assert.Equal(t, int64(6*2+8*748), *result.Summary.ObjectiveValue)
	assert.Equal(t, 1, result.Summary.LikesSatisfied)
	assert.Equal(t, 1, result.Summary.DislikesViolated)

	stats := result.Doctors
	require.Len(t, stats, 3)
	assert.Equal(t, 1, stats[0].LikesSatisfied)
	assert.Equal(t, 1, stats[1].DislikesViolated)
	assert.Equal(t, 0, stats[2].LikesSatisfied)
}

func TestSolve_LikePullsDoctorOntoShift(t *testing.T) {
	week := newWeek(
		[]model.Doctor{
			newDoctor("A", model.RoleResident, 40, "ward"),
			newDoctor("B", model.RoleResident, 40, "ward"),
		},
		[]model.Shift{newShift("MON_D_WARD", model.Monday, 8, 16, 8, model.DepartmentWard, "ward", 1)},
	)
	week.Preferences = []model.Preference{
		{DoctorID: "B", ShiftID: "MON_D_WARD", Polarity: model.PolarityLike},
	}

	result := solveWeek(t, week, DefaultOptions())

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.Equal(t, []string{"B"}, assignedDoctors(result, "MON_D_WARD"))
	assert.Equal(t, int64(8*198-3), *result.Summary.ObjectiveValue)
}

func TestSolve_HardRulesHoldAndStatsMatch(t *testing.T) {
	result := solveWeek(t, mixedWeek(), DefaultOptions())
	require.True(t, result.HasSolution())

	assert.Empty(t, result.Roster.Verify(HardRules(DefaultOptions())))

	maxNights, minNights := 0, -1
	for _, st := range result.Doctors {
		assert.LessOrEqual(t, st.TotalHours, st.MaxHours, st.DoctorID)
		maxNights = max(maxNights, st.NightShifts)
		if minNights < 0 || st.NightShifts < minNights {
			minNights = st.NightShifts
		}
	}

	assert.GreaterOrEqual(t, result.Summary.NightSpread, 0)
	assert.Equal(t, maxNights-minNights, result.Summary.NightSpread)
}

func TestSolve_IdenticalInputsGiveIdenticalObjective(t *testing.T) {
	first := solveWeek(t, mixedWeek(), DefaultOptions())
	second := solveWeek(t, mixedWeek(), DefaultOptions())

	require.True(t, first.HasSolution())
	require.True(t, second.HasSolution())
	assert.Equal(t, *first.Summary.ObjectiveValue, *second.Summary.ObjectiveValue)
	assert.Equal(t, first.Roster.Assignments(), second.Roster.Assignments())
}

func TestSolve_DoctorCappedBelowEveryShiftGetsNothing(t *testing.T) {
	week := mixedWeek()
	week.Doctors = append(week.Doctors, newDoctor("D", model.RoleResident, 6, "ward", "icu"))

	result := solveWeek(t, week, DefaultOptions())
	require.True(t, result.HasSolution())

	for _, a := range result.Roster.Assignments() {
		assert.NotEqual(t, "D", a.DoctorID)
	}
	assert.Equal(t, 0, result.Doctors[3].TotalHours)
}

func TestSolve_MentorNeedsSpecialistOnShift(t *testing.T) {
	intern := newDoctor("I", model.RoleIntern, 40, "ward")
	intern.NeedsMentor = true
	week := newWeek(
		[]model.Doctor{
			intern,
			newDoctor("R", model.RoleResident, 40, "ward"),
			newDoctor("S", model.RoleSpecialist, 40, "ward"),
		},
		[]model.Shift{newShift("MON_D_WARD", model.Monday, 8, 16, 8, model.DepartmentWard, "ward", 2)},
	)
	// The intern would rather work, pushing toward an intern + specialist pair
	week.Preferences = []model.Preference{
		{DoctorID: "I", ShiftID: "MON_D_WARD", Polarity: model.PolarityLike},
	}

	result := solveWeek(t, week, DefaultOptions())
	require.Equal(t, solver.StatusOptimal, result.Status)

	on := assignedDoctors(result, "MON_D_WARD")
	assert.Len(t, on, 2)
	if assert.Contains(t, on, "I") {
		assert.Contains(t, on, "S")
	}
}

func TestSolve_UnavailabilityIsRespected(t *testing.T) {
	week := newWeek(
		[]model.Doctor{
			newDoctor("A", model.RoleResident, 40, "ward"),
			newDoctor("B", model.RoleResident, 40, "ward"),
		},
		[]model.Shift{
			newShift("MON_D_WARD", model.Monday, 8, 16, 8, model.DepartmentWard, "ward", 1),
			newShift("TUE_D_WARD", model.Tuesday, 8, 16, 8, model.DepartmentWard, "ward", 1),
		},
	)
	week.UnavailableDays = []model.DayUnavailability{{DoctorID: "A", Day: model.Monday}}
	week.UnavailableShifts = []model.ShiftUnavailability{{DoctorID: "B", ShiftID: "TUE_D_WARD"}}

	result := solveWeek(t, week, DefaultOptions())

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.Equal(t, []string{"B"}, assignedDoctors(result, "MON_D_WARD"))
	assert.Equal(t, []string{"A"}, assignedDoctors(result, "TUE_D_WARD"))
}

func TestSolve_RelaxedStaffingReportsShortfall(t *testing.T) {
	week := newWeek(
		[]model.Doctor{newDoctor("A", model.RoleResident, 40, "ward")},
		[]model.Shift{
			newShift("MON_D_ICU", model.Monday, 8, 16, 8, model.DepartmentICU, "icu", 1),
		},
	)
	opts := DefaultOptions()
	opts.RelaxedStaffing = true

	result := solveWeek(t, week, opts)

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.Equal(t, 1, result.TotalShortfall())
	assert.Equal(t, 1, result.Summary.TotalShortfall)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, Shortfall{
		ShiftID:   "MON_D_ICU",
		ShiftCode: "MON_D_ICU",
		Day:       model.Monday,
		Required:  1,
		Assigned:  0,
		Missing:   1,
	}, result.Shortfalls[0])

	require.Len(t, result.Schedule, 1)
	assert.True(t, result.Schedule[0].Unfilled)

	// One slot short, weighted above the full ratio spread range
	assert.Equal(t, int64(8*ratioMax+1), *result.Summary.ObjectiveValue)
}

// evenWeek is six residents against seven day shifts: full cover is possible
// but leaves one resident with two shifts
func evenWeek() *model.Week {
	var doctors []model.Doctor
	for _, id := range []string{"A", "B", "C", "D", "E", "F"} {
		doctors = append(doctors, newDoctor(id, model.RoleResident, 48, "ward"))
	}
	var shifts []model.Shift
	for _, day := range model.AllDays() {
		code := strings.ToUpper(day.String()) + "_D_WARD"
		shifts = append(shifts, newShift(code, day, 8, 16, 8, model.DepartmentWard, "ward", 1))
	}
	return newWeek(doctors, shifts)
}

func TestSolve_RelaxedStaffingFillsEverySlotItCan(t *testing.T) {
	strict := solveWeek(t, evenWeek(), DefaultOptions())
	require.Equal(t, solver.StatusOptimal, strict.Status)

	opts := DefaultOptions()
	opts.RelaxedStaffing = true
	relaxed := solveWeek(t, evenWeek(), opts)

	require.Equal(t, solver.StatusOptimal, relaxed.Status)
	assert.Equal(t, 0, relaxed.TotalShortfall())
	assert.Empty(t, relaxed.Shortfalls)
	assert.Len(t, relaxed.Roster.Assignments(), 7)
	assert.Equal(t, *strict.Summary.ObjectiveValue, *relaxed.Summary.ObjectiveValue)
}

func TestSolve_HospitalWeekWithinTimeBudget(t *testing.T) {
	session, err := NewSession(hospitalWeek(), DefaultOptions())
	require.NoError(t, err)

	params := solver.Parameters{TimeLimit: 3 * time.Second, NumWorkers: 2}
	result, err := session.Solve(context.Background(), solver.NewEngine(), params)
	require.NoError(t, err)

	require.True(t, result.HasSolution(), "status %s", result.Status)
	assert.Empty(t, result.Roster.Verify(HardRules(DefaultOptions())))
	for _, shift := range session.Week().Shifts {
		assert.Len(t, assignedDoctors(result, shift.ID), shift.MinStaff, shift.Code)
	}
}

func TestShortfallWeight(t *testing.T) {
	week := mixedWeek()
	week.Preferences = []model.Preference{
		{DoctorID: "B", ShiftID: "MON_D_WARD", Polarity: model.PolarityDislike},
		{DoctorID: "A", ShiftID: "WED_24_WARD", Polarity: model.PolarityLike},
	}

	opts := DefaultOptions()
	opts.RelaxedStaffing = true
	session, err := NewSession(week, opts)
	require.NoError(t, err)

	// 2 preferences, 2 night duties, full ratio range
	assert.Equal(t, int64(3*2+6*2+8*ratioMax+1), session.shortfallWeight())

	opts.Weights.Shortfall = 1_000_000
	session, err = NewSession(week, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), session.shortfallWeight())
}

func TestSolve_UnlimitedExtraStaff(t *testing.T) {
	week := newWeek(
		[]model.Doctor{
			newDoctor("A", model.RoleResident, 40, "ward"),
			newDoctor("B", model.RoleResident, 40, "ward"),
		},
		[]model.Shift{newShift("MON_D_WARD", model.Monday, 8, 16, 8, model.DepartmentWard, "ward", 1)},
	)
	opts := DefaultOptions()
	opts.Limits.ExtraStaff = UnlimitedExtraStaff

	result := solveWeek(t, week, opts)

	// Equal workload is only possible with both on duty
	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.Len(t, assignedDoctors(result, "MON_D_WARD"), 2)
	assert.Equal(t, int64(0), *result.Summary.ObjectiveValue)
}

func TestSolve_UnknownStatusHasNoRoster(t *testing.T) {
	session, err := NewSession(mixedWeek(), DefaultOptions())
	require.NoError(t, err)

	result, err := session.Solve(context.Background(), &stubBackend{status: solver.StatusUnknown}, solver.Parameters{})
	require.NoError(t, err)

	assert.Equal(t, solver.StatusUnknown, result.Status)
	assert.Nil(t, result.Roster)
	assert.Nil(t, result.Summary.ObjectiveValue)
}

func TestSolve_RejectsSolutionBreakingHardRules(t *testing.T) {
	session, err := NewSession(mixedWeek(), DefaultOptions())
	require.NoError(t, err)

	// Nobody on any shift
	_, err = session.Solve(context.Background(), &stubBackend{status: solver.StatusFeasible}, solver.Parameters{})
	require.Error(t, err)

	var verr *VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations, 4)
	assert.Contains(t, ruleNames(verr.Violations), "Staffing")
}

func TestSolve_BackendError(t *testing.T) {
	session, err := NewSession(mixedWeek(), DefaultOptions())
	require.NoError(t, err)

	_, err = session.Solve(context.Background(), &stubBackend{err: errors.New("boom")}, solver.Parameters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewSession_ConfigErrors(t *testing.T) {
	week := mixedWeek()
	week.Preferences = []model.Preference{{DoctorID: "Z", ShiftID: "MON_D_WARD", Polarity: model.PolarityLike}}
	week.Shifts[0].RequiredSkill = "surgery"

	_, err := NewSession(week, DefaultOptions())
	require.Error(t, err)

	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Problems, 2)
}

func TestNewSession_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Weights.RatioSpread = -1

	_, err := NewSession(mixedWeek(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestNewSession_OneDecisionVariablePerPair(t *testing.T) {
	week := mixedWeek()
	session, err := NewSession(week, DefaultOptions())
	require.NoError(t, err)

	seen := map[solver.Var]bool{}
	for d, doc := range week.Doctors {
		require.Len(t, session.x[d], len(week.Shifts))
		for s, shift := range week.Shifts {
			v := session.x[d][s]
			assert.False(t, seen[v])
			seen[v] = true
			assert.Equal(t, "x_"+doc.ID+"_"+shift.ID, session.Model().Name(v))
		}
	}
	assert.Len(t, seen, len(week.Doctors)*len(week.Shifts))
}
