package roster

import (
	"strings"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// ScheduleRecord is a row of the published schedule table
type ScheduleRecord struct {
	Day       string `col:"Day" json:"day"`
	ShiftCode string `col:"ShiftCode" json:"shift_code"`
	Dept      string `col:"Dept" json:"dept"`
	StartHour int    `col:"StartHour" json:"start_hour"`
	EndHour   int    `col:"EndHour" json:"end_hour"`
	Hours     int    `col:"Hours" json:"hours"`
	DoctorID  string `col:"DoctorID" json:"doctor_id"`
	Doctor    string `col:"Doctor" json:"doctor"`
	Role      string `col:"Role" json:"role"`
}

// UnfilledMarker is written in the Doctor column of a shift nobody works
const UnfilledMarker = "UNFILLED"

// StatsRecord is a row of the published per-doctor statistics table
type StatsRecord struct {
	DoctorID         string `col:"DoctorID" json:"doctor_id"`
	Doctor           string `col:"Doctor" json:"doctor"`
	Role             string `col:"Role" json:"role"`
	TotalHours       int    `col:"TotalHours" json:"total_hours"`
	MaxHours         int    `col:"MaxHours" json:"max_hours"`
	NightShifts      int    `col:"NightShifts" json:"night_shifts"`
	TwentyFourCount  int    `col:"TwentyFourCount" json:"twentyfour_count"`
	WardCount        int    `col:"WardCount" json:"ward_count"`
	ICUCount         int    `col:"ICUCount" json:"icu_count"`
	ClinicCount      int    `col:"ClinicCount" json:"clinic_count"`
	LikesSatisfied   int    `col:"like_satisfied" json:"like_satisfied"`
	DislikesViolated int    `col:"dislike_violated" json:"dislike_violated"`
	Warnings         string `col:"warnings" json:"warnings"`
}

// SummaryRecord is the single row of the published solver statistics table
type SummaryRecord struct {
	ObjectiveValue   *int64  `col:"objective_value" json:"objective_value"`
	Status           string  `col:"status" json:"status"`
	Conflicts        int64   `col:"conflicts" json:"conflicts"`
	Branches         int64   `col:"branches" json:"branches"`
	WallTime         float64 `col:"wall_time" json:"wall_time"`
	MaxNights        int     `col:"max_nights" json:"max_nights"`
	MinNights        int     `col:"min_nights" json:"min_nights"`
	Spread           int     `col:"spread" json:"spread"`
	RatioSpread      int     `col:"ratio_spread" json:"ratio_spread"`
	LikesSatisfied   int     `col:"like_satisfied" json:"like_satisfied"`
	DislikesViolated int     `col:"dislike_violated" json:"dislike_violated"`
	Shortfall        int     `col:"shortfall" json:"shortfall"`
}

// ScheduleRecords flattens the schedule for publishing. End hours are
// written as clock hours, the way shifts are entered.
func (r *Result) ScheduleRecords() []ScheduleRecord {
	records := make([]ScheduleRecord, 0, len(r.Schedule))
	for _, row := range r.Schedule {
		record := ScheduleRecord{
			Day:       row.Day.String(),
			ShiftCode: row.ShiftCode,
			Dept:      string(row.Department),
			StartHour: row.StartHour,
			EndHour:   row.EndHour % model.HoursPerDay,
			Hours:     row.Hours,
			DoctorID:  row.DoctorID,
			Doctor:    row.Doctor,
			Role:      string(row.Role),
		}
		if row.Unfilled {
			record.Doctor = UnfilledMarker
		}
		records = append(records, record)
	}
	return records
}

// StatsRecords flattens the per-doctor statistics for publishing
func (r *Result) StatsRecords() []StatsRecord {
	records := make([]StatsRecord, 0, len(r.Doctors))
	for _, st := range r.Doctors {
		warnings := make([]string, 0, len(st.Warnings))
		for _, w := range st.Warnings {
			warnings = append(warnings, string(w))
		}
		records = append(records, StatsRecord{
			DoctorID:         st.DoctorID,
			Doctor:           st.Name,
			Role:             string(st.Role),
			TotalHours:       st.TotalHours,
			MaxHours:         st.MaxHours,
			NightShifts:      st.NightShifts,
			TwentyFourCount:  st.TwentyFourCount,
			WardCount:        st.WardCount,
			ICUCount:         st.ICUCount,
			ClinicCount:      st.ClinicCount,
			LikesSatisfied:   st.LikesSatisfied,
			DislikesViolated: st.DislikesViolated,
			Warnings:         strings.Join(warnings, ";"),
		})
	}
	return records
}

// SummaryRecord flattens the global statistics for publishing
func (r *Result) SummaryRecord() SummaryRecord {
	s := r.Summary
	return SummaryRecord{
		ObjectiveValue:   s.ObjectiveValue,
		Status:           s.Status.String(),
		Conflicts:        s.Conflicts,
		Branches:         s.Branches,
		WallTime:         s.WallTime.Seconds(),
		MaxNights:        s.MaxNights,
		MinNights:        s.MinNights,
		Spread:           s.NightSpread,
		RatioSpread:      s.RatioSpread,
		LikesSatisfied:   s.LikesSatisfied,
		DislikesViolated: s.DislikesViolated,
		Shortfall:        s.TotalShortfall,
	}
}
