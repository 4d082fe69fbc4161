package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTables() Tables {
	return Tables{
		Doctors: []DoctorRecord{
			{ID: "D1", Name: "Dr One", Role: "specialist", Skills: "ward; icu", MaxHours: 48, TwentyFourAllowed: true},
			{ID: "D2", Name: "Dr Two", Role: "intern", Skills: "ward", MaxHours: 40, NeedsMentor: true},
		},
		Shifts: []ShiftRecord{
			{ID: "S1", Code: "MON_D_WARD", Day: "Mon", StartHour: 8, EndHour: 16, Hours: 8, Dept: "WARD", RequiredSkill: "ward", MinStaff: 1},
			{ID: "S2", Code: "MON_N_ICU", Day: "Mon", StartHour: 20, EndHour: 8, Hours: 12, Dept: "ICU", RequiredSkill: "icu", MinStaff: 1},
			{ID: "S3", Code: "SUN_24_WARD", Day: "Sun", StartHour: 8, EndHour: 8, Hours: 24, Dept: "WARD", RequiredSkill: "ward", MinStaff: 0},
		},
		UnavailableDays:   []UnavailabilityDayRecord{{DoctorID: "D2", Day: "Tue"}},
		UnavailableShifts: []UnavailabilityShiftRecord{{DoctorID: "D1", Code: "SUN_24_WARD"}},
		Preferences:       []PreferenceRecord{{DoctorID: "D1", Code: "MON_N_ICU", Preference: "dislike"}},
		Candidates: []CandidateRecord{
			{ID: "C1", Name: "Dr Locum", Role: "resident", Skills: "icu", MaxHours: 40, Cost: 250},
		},
	}
}

func TestResolve(t *testing.T) {
	week, candidates, err := Resolve(validTables())
	require.NoError(t, err)

	require.Len(t, week.Doctors, 2)
	assert.Equal(t, Doctor{
		ID:                "D1",
		Name:              "Dr One",
		Role:              RoleSpecialist,
		Skills:            SkillSet{"icu", "ward"},
		MaxHours:          48,
		TwentyFourAllowed: true,
	}, week.Doctors[0])
	assert.True(t, week.Doctors[1].NeedsMentor)

	require.Len(t, week.Shifts, 3)

	night := week.Shifts[1]
	assert.Equal(t, 20, night.StartHour)
	assert.Equal(t, 32, night.EndHour)
	assert.Equal(t, 20, night.AbsStart())
	assert.Equal(t, 32, night.AbsEnd())
	assert.True(t, night.IsNight())

	duty := week.Shifts[2]
	assert.Equal(t, Sunday, duty.Day)
	assert.Equal(t, 6*24+8, duty.AbsStart())
	assert.Equal(t, 7*24+8, duty.AbsEnd())
	assert.True(t, duty.IsTwentyFour())
	assert.True(t, duty.IsNight())

	assert.Equal(t, []DayUnavailability{{DoctorID: "D2", Day: Tuesday}}, week.UnavailableDays)
	assert.Equal(t, []ShiftUnavailability{{DoctorID: "D1", ShiftID: "S3"}}, week.UnavailableShifts)
	assert.Equal(t, []Preference{{DoctorID: "D1", ShiftID: "S2", Polarity: PolarityDislike}}, week.Preferences)

	// Catalog is the union of every mentioned skill, candidates included
	assert.Equal(t, SkillSet{"icu", "ward"}, week.Skills)

	require.Len(t, candidates, 1)
	assert.Equal(t, "C1", candidates[0].Doctor.ID)
	assert.Equal(t, SkillSet{"icu"}, candidates[0].Doctor.Skills)
	assert.Equal(t, 250.0, candidates[0].Cost)
}

func TestResolve_ExplicitSkillCatalog(t *testing.T) {
	tables := validTables()
	tables.Skills = []string{"ward"}

	_, _, err := Resolve(tables)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)

	// D1 knows icu, S2 requires it and C1 knows it
	tables.Skills = []string{"ward", "icu", "clinic"}
	week, _, err := Resolve(tables)
	require.NoError(t, err)
	assert.Equal(t, SkillSet{"clinic", "icu", "ward"}, week.Skills)

	tables.Candidates[0].Skills = "theatre"
	_, _, err = Resolve(tables)
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Problems, 1)
	assert.Equal(t, "candidates", cfgErr.Problems[0].Table)
	assert.Contains(t, cfgErr.Problems[0].Message, `unknown skill "theatre"`)
}

func TestResolve_CollectsEveryProblem(t *testing.T) {
	tables := validTables()
	tables.Doctors[1].MaxHours = 0
	tables.Shifts[0].Dept = "THEATRE"
	tables.UnavailableDays = append(tables.UnavailableDays, UnavailabilityDayRecord{DoctorID: "ghost", Day: "Mon"})
	tables.UnavailableShifts[0].Code = "NOPE"
	tables.Preferences[0].Preference = "love"
	tables.Candidates = append(tables.Candidates, CandidateRecord{ID: "D1", Name: "Dup", Role: "resident", MaxHours: 40})

	_, _, err := Resolve(tables)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)

	type key struct {
		table string
		row   int
		field string
	}
	found := make(map[key]bool)
	for _, p := range cfgErr.Problems {
		found[key{p.Table, p.Row, p.Field}] = true
	}

	assert.True(t, found[key{"doctors", 2, "max_hours"}])
	assert.True(t, found[key{"shifts", 1, "dept"}])
	assert.True(t, found[key{"unavailability_day", 2, "doctor_id"}])
	assert.True(t, found[key{"unavailability_shift", 1, "code"}])
	assert.True(t, found[key{"preferences", 1, "preference"}])
	assert.True(t, found[key{"candidates", 2, "id"}])
	assert.Contains(t, err.Error(), "problems")
}

func TestResolve_EmptyTables(t *testing.T) {
	_, _, err := Resolve(Tables{})

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Problems, 2)
	assert.Equal(t, "doctors", cfgErr.Problems[0].Table)
	assert.Equal(t, "shifts", cfgErr.Problems[1].Table)
}

func TestResolve_DuplicateCandidate(t *testing.T) {
	tables := validTables()
	tables.Candidates = append(tables.Candidates, tables.Candidates[0])

	_, _, err := Resolve(tables)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Problems, 1)
	assert.Equal(t, 2, cfgErr.Problems[0].Row)
	assert.Contains(t, cfgErr.Problems[0].Message, "duplicate candidate")
}

func TestParseSkills(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected SkillSet
		wantErr  bool
	}{
		{name: "empty", raw: "", expected: SkillSet{}},
		{name: "blank", raw: "   ", expected: SkillSet{}},
		{name: "single", raw: "icu", expected: SkillSet{"icu"}},
		{name: "sorted and deduplicated", raw: "ward;icu; ward ", expected: SkillSet{"icu", "ward"}},
		{name: "trailing separator", raw: "icu;", wantErr: true},
		{name: "comma separated", raw: "icu,ward", wantErr: true},
		{name: "inner space", raw: "intensive care", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skills, err := ParseSkills(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, skills)
		})
	}
}
