package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

func TestDoctorStats_Counts(t *testing.T) {
	stats := validMixedRoster(t).DoctorStats()
	require.Len(t, stats, 3)

	a := stats[0]
	assert.Equal(t, "A", a.DoctorID)
	assert.Equal(t, 36, a.TotalHours)
	assert.Equal(t, 48, a.MaxHours)
	assert.Equal(t, 2, a.Shifts)
	assert.Equal(t, 2, a.NightShifts)
	assert.Equal(t, 1, a.TwentyFourCount)
	assert.Equal(t, 1, a.WardCount)
	assert.Equal(t, 1, a.ICUCount)
	assert.Equal(t, 0, a.ClinicCount)
	assert.Equal(t, []Warning{WarningOnlyNights}, a.Warnings)

	b := stats[1]
	assert.Equal(t, 16, b.TotalHours)
	assert.Equal(t, 2, b.WardCount)
	assert.Equal(t, 0, b.NightShifts)
	assert.Empty(t, b.Warnings)

	c := stats[2]
	assert.Equal(t, 0, c.TotalHours)
	assert.Empty(t, c.Warnings)
}

func TestWorkloadWarnings(t *testing.T) {
	tests := []struct {
		name     string
		stats    DoctorStats
		expected []Warning
	}{
		{
			name:     "near the limit of a long cap",
			stats:    DoctorStats{MaxHours: 60, TotalHours: 54, Shifts: 5},
			expected: []Warning{WarningNearHourLimit},
		},
		{
			name:  "near the limit of a short cap is fine",
			stats: DoctorStats{MaxHours: 40, TotalHours: 40, Shifts: 5},
		},
		{
			name:  "just under 90 percent",
			stats: DoctorStats{MaxHours: 60, TotalHours: 53, Shifts: 5},
		},
		{
			name:     "two 24h duties, nothing else",
			stats:    DoctorStats{MaxHours: 60, TotalHours: 48, Shifts: 2, NightShifts: 2, TwentyFourCount: 2},
			expected: []Warning{WarningMany24h, WarningOnlyNights},
		},
		{
			name:     "three nights among other shifts",
			stats:    DoctorStats{MaxHours: 48, TotalHours: 44, Shifts: 4, NightShifts: 3},
			expected: []Warning{WarningManyNights},
		},
		{
			name:  "no shifts",
			stats: DoctorStats{MaxHours: 48},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, workloadWarnings(tt.stats))
		})
	}
}

func TestSchedule_UnfilledRows(t *testing.T) {
	r := rosterWith(t, mixedWeek(), [2]string{"B", "MON_D_WARD"})

	rows := r.Schedule()
	require.Len(t, rows, 4)

	assert.Equal(t, "B", rows[0].DoctorID)
	assert.Equal(t, "Dr B", rows[0].Doctor)
	assert.Equal(t, model.RoleResident, rows[0].Role)
	assert.False(t, rows[0].Unfilled)

	for _, row := range rows[1:] {
		assert.True(t, row.Unfilled, row.ShiftCode)
		assert.Empty(t, row.DoctorID)
	}

	assert.Len(t, r.Shortfalls(), 3)
}
