package roster

import "github.com/jakechorley/duty-roster/pkg/core/model"

// Warning flags a doctor whose workload deserves a second look
type Warning string

const (
	// WarningNearHourLimit: cap above 48h and at least 90% of it used
	WarningNearHourLimit Warning = "near_hour_limit"
	// WarningMany24h: two or more 24h duties
	WarningMany24h Warning = "many_24h"
	// WarningManyNights: three or more night/24h shifts
	WarningManyNights Warning = "many_nights"
	// WarningOnlyNights: every rostered shift is a night/24h shift
	WarningOnlyNights Warning = "only_nights"
)

const (
	nearLimitMinCap     = 48
	nearLimitPercent    = 90
	many24hThreshold    = 2
	manyNightsThreshold = 3
)

// DoctorStats summarises one doctor's week
type DoctorStats struct {
	DoctorID string
	Name     string
	Role     model.Role

	TotalHours      int
	MaxHours        int
	Shifts          int
	NightShifts     int
	TwentyFourCount int
	WardCount       int
	ICUCount        int
	ClinicCount     int

	LikesSatisfied   int
	DislikesViolated int

	Warnings []Warning
}

// DoctorStats computes the statistics of every doctor in pool order
func (r *Roster) DoctorStats() []DoctorStats {
	stats := make([]DoctorStats, len(r.week.Doctors))

	for d, doc := range r.week.Doctors {
		st := DoctorStats{
			DoctorID: doc.ID,
			Name:     doc.Name,
			Role:     doc.Role,
			MaxHours: doc.MaxHours,
		}
		for sh, shift := range r.week.Shifts {
			if !r.assigned[d][sh] {
				continue
			}
			st.Shifts++
			st.TotalHours += shift.Hours
			if shift.IsNight() {
				st.NightShifts++
			}
			if shift.IsTwentyFour() {
				st.TwentyFourCount++
			}
			switch shift.Department {
			case model.DepartmentWard:
				st.WardCount++
			case model.DepartmentICU:
				st.ICUCount++
			case model.DepartmentClinic:
				st.ClinicCount++
			}
		}
		stats[d] = st
	}

	for _, p := range r.week.Preferences {
		d := r.doctorPos[p.DoctorID]
		if !r.assigned[d][r.shiftPos[p.ShiftID]] {
			continue
		}
		switch p.Polarity {
		case model.PolarityLike:
			stats[d].LikesSatisfied++
		case model.PolarityDislike:
			stats[d].DislikesViolated++
		}
	}

	for d := range stats {
		stats[d].Warnings = workloadWarnings(stats[d])
	}

	return stats
}

func workloadWarnings(st DoctorStats) []Warning {
	var warnings []Warning
	if st.MaxHours > nearLimitMinCap && st.TotalHours*100 >= st.MaxHours*nearLimitPercent {
		warnings = append(warnings, WarningNearHourLimit)
	}
	if st.TwentyFourCount >= many24hThreshold {
		warnings = append(warnings, WarningMany24h)
	}
	if st.NightShifts >= manyNightsThreshold {
		warnings = append(warnings, WarningManyNights)
	}
	if st.NightShifts > 0 && st.NightShifts == st.Shifts {
		warnings = append(warnings, WarningOnlyNights)
	}
	return warnings
}
