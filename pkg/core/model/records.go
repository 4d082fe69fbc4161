package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DoctorRecord is a row of the doctors input table
type DoctorRecord struct {
	ID                string `col:"id" json:"id" validate:"required"`
	Name              string `col:"name" json:"name" validate:"required"`
	Role              string `col:"role" json:"role" validate:"required"`
	Skills            string `col:"skills" json:"skills"`
	MaxHours          int    `col:"max_hours" json:"max_hours" validate:"gt=0"`
	TwentyFourAllowed bool   `col:"twentyfour_allowed" json:"twentyfour_allowed"`
	NeedsMentor       bool   `col:"needs_mentor" json:"needs_mentor"`
}

// ShiftRecord is a row of the shifts input table
type ShiftRecord struct {
	ID            string `col:"id" json:"id" validate:"required"`
	Code          string `col:"code" json:"code" validate:"required"`
	Day           string `col:"day" json:"day" validate:"required,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	StartHour     int    `col:"start_hour" json:"start_hour" validate:"gte=0,lte=23"`
	EndHour       int    `col:"end_hour" json:"end_hour" validate:"gte=0,lte=47"`
	Hours         int    `col:"hours" json:"hours" validate:"gt=0,lte=24"`
	Dept          string `col:"dept" json:"dept" validate:"oneof=WARD ICU CLINIC"`
	RequiredSkill string `col:"required_skill" json:"required_skill" validate:"required"`
	MinStaff      int    `col:"min_staff" json:"min_staff" validate:"gte=0"`
}

// UnavailabilityDayRecord is a row of the day-level unavailability table
type UnavailabilityDayRecord struct {
	DoctorID string `col:"doctor_id" json:"doctor_id" validate:"required"`
	Day      string `col:"day" json:"day" validate:"required,oneof=Mon Tue Wed Thu Fri Sat Sun"`
}

// UnavailabilityShiftRecord is a row of the shift-level unavailability table
type UnavailabilityShiftRecord struct {
	DoctorID string `col:"doctor_id" json:"doctor_id" validate:"required"`
	Code     string `col:"code" json:"code" validate:"required"`
}

// PreferenceRecord is a row of the preferences table
type PreferenceRecord struct {
	DoctorID   string `col:"doctor_id" json:"doctor_id" validate:"required"`
	Code       string `col:"code" json:"code" validate:"required"`
	Preference string `col:"preference" json:"preference" validate:"oneof=like dislike"`
}

// CandidateRecord is a row of the hireable candidate pool.
// Same columns as DoctorRecord plus an optional cost.
type CandidateRecord struct {
	ID                string  `col:"id" json:"id" validate:"required"`
	Name              string  `col:"name" json:"name" validate:"required"`
	Role              string  `col:"role" json:"role" validate:"required"`
	Skills            string  `col:"skills" json:"skills"`
	MaxHours          int     `col:"max_hours" json:"max_hours" validate:"gt=0"`
	TwentyFourAllowed bool    `col:"twentyfour_allowed" json:"twentyfour_allowed"`
	NeedsMentor       bool    `col:"needs_mentor" json:"needs_mentor"`
	Cost              float64 `col:"cost,optional" json:"cost" validate:"gte=0"`
}

// Tables is the flat record set handed over by an ingestion layer
type Tables struct {
	Doctors           []DoctorRecord              `json:"doctors" validate:"required,min=1"`
	Shifts            []ShiftRecord               `json:"shifts" validate:"required,min=1"`
	UnavailableDays   []UnavailabilityDayRecord   `json:"unavailability_day"`
	UnavailableShifts []UnavailabilityShiftRecord `json:"unavailability_shift"`
	Preferences       []PreferenceRecord          `json:"preferences"`
	Candidates        []CandidateRecord           `json:"candidates"`

	// Skills is an optional explicit skill catalog. When empty the catalog is
	// every skill mentioned by doctors, candidates and shifts.
	Skills []string `json:"skills"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name, _, _ := strings.Cut(field.Tag.Get("col"), ","); name != "" {
			return name
		}
		return field.Name
	})
}

// ParseSkills parses a ';' separated skill list. An empty string is an empty set.
func ParseSkills(raw string) (SkillSet, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SkillSet{}, nil
	}

	parts := strings.Split(raw, ";")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		skill := strings.TrimSpace(part)
		if skill == "" {
			return nil, fmt.Errorf("empty skill in list %q", raw)
		}
		if strings.ContainsAny(skill, " \t,") {
			return nil, fmt.Errorf("malformed skill %q in list %q", skill, raw)
		}
		skills = append(skills, skill)
	}
	return NewSkillSet(skills...), nil
}

// Resolve converts the flat input tables into a validated Week and candidate pool.
// Shift codes are resolved to shift IDs and skill lists to explicit tag sets here,
// so later stages never see free text. Every problem found is returned in a
// single *ConfigError.
func Resolve(t Tables) (*Week, []Candidate, error) {
	var p problems

	checkRecord := func(table string, row int, record any) {
		err := validate.Struct(record)
		if err == nil {
			return
		}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				p.add(table, row, fe.Field(), "failed %q validation (value %v)", fe.Tag(), fe.Value())
			}
			return
		}
		p.add(table, row, "", "%v", err)
	}

	if len(t.Doctors) == 0 {
		p.add("doctors", 0, "", "at least one doctor is required")
	}
	if len(t.Shifts) == 0 {
		p.add("shifts", 0, "", "at least one shift is required")
	}

	mentioned := make([]string, 0)

	week := &Week{}
	for i, r := range t.Doctors {
		checkRecord("doctors", i+1, r)
		skills, err := ParseSkills(r.Skills)
		if err != nil {
			p.add("doctors", i+1, "skills", "%v", err)
		}
		mentioned = append(mentioned, skills...)
		week.Doctors = append(week.Doctors, Doctor{
			ID:                r.ID,
			Name:              r.Name,
			Role:              Role(r.Role),
			Skills:            skills,
			MaxHours:          r.MaxHours,
			TwentyFourAllowed: r.TwentyFourAllowed,
			NeedsMentor:       r.NeedsMentor,
		})
	}

	for i, r := range t.Shifts {
		checkRecord("shifts", i+1, r)
		day, err := ParseDay(r.Day)
		if err != nil {
			continue
		}
		end := r.EndHour
		if end <= r.StartHour {
			// Crosses midnight
			end += HoursPerDay
		}
		mentioned = append(mentioned, r.RequiredSkill)
		week.Shifts = append(week.Shifts, Shift{
			ID:            r.ID,
			Code:          r.Code,
			Day:           day,
			StartHour:     r.StartHour,
			EndHour:       end,
			Hours:         r.Hours,
			Department:    Department(r.Dept),
			RequiredSkill: r.RequiredSkill,
			MinStaff:      r.MinStaff,
		})
	}

	knownDoctor := func(id string) bool {
		_, ok := week.DoctorByID(id)
		return ok
	}

	for i, r := range t.UnavailableDays {
		checkRecord("unavailability_day", i+1, r)
		if !knownDoctor(r.DoctorID) {
			p.add("unavailability_day", i+1, "doctor_id", "unknown doctor %q", r.DoctorID)
			continue
		}
		day, err := ParseDay(r.Day)
		if err != nil {
			continue
		}
		week.UnavailableDays = append(week.UnavailableDays, DayUnavailability{DoctorID: r.DoctorID, Day: day})
	}

	for i, r := range t.UnavailableShifts {
		checkRecord("unavailability_shift", i+1, r)
		if !knownDoctor(r.DoctorID) {
			p.add("unavailability_shift", i+1, "doctor_id", "unknown doctor %q", r.DoctorID)
			continue
		}
		shift, ok := week.ShiftByCode(r.Code)
		if !ok {
			p.add("unavailability_shift", i+1, "code", "unknown shift code %q", r.Code)
			continue
		}
		week.UnavailableShifts = append(week.UnavailableShifts, ShiftUnavailability{DoctorID: r.DoctorID, ShiftID: shift.ID})
	}

	for i, r := range t.Preferences {
		checkRecord("preferences", i+1, r)
		if !knownDoctor(r.DoctorID) {
			p.add("preferences", i+1, "doctor_id", "unknown doctor %q", r.DoctorID)
			continue
		}
		shift, ok := week.ShiftByCode(r.Code)
		if !ok {
			p.add("preferences", i+1, "code", "unknown shift code %q", r.Code)
			continue
		}
		week.Preferences = append(week.Preferences, Preference{
			DoctorID: r.DoctorID,
			ShiftID:  shift.ID,
			Polarity: Polarity(r.Preference),
		})
	}

	candidates := make([]Candidate, 0, len(t.Candidates))
	candidateIDs := make(map[string]bool, len(t.Candidates))
	for i, r := range t.Candidates {
		checkRecord("candidates", i+1, r)
		skills, err := ParseSkills(r.Skills)
		if err != nil {
			p.add("candidates", i+1, "skills", "%v", err)
		}
		if knownDoctor(r.ID) {
			p.add("candidates", i+1, "id", "candidate %q is already in the doctor pool", r.ID)
		}
		if candidateIDs[r.ID] {
			p.add("candidates", i+1, "id", "duplicate candidate id %q", r.ID)
		}
		candidateIDs[r.ID] = true
		mentioned = append(mentioned, skills...)
		candidates = append(candidates, Candidate{
			Doctor: Doctor{
				ID:                r.ID,
				Name:              r.Name,
				Role:              Role(r.Role),
				Skills:            skills,
				MaxHours:          r.MaxHours,
				TwentyFourAllowed: r.TwentyFourAllowed,
				NeedsMentor:       r.NeedsMentor,
			},
			Cost: r.Cost,
		})
	}

	if len(t.Skills) > 0 {
		week.Skills = NewSkillSet(t.Skills...)
		for i, c := range candidates {
			for _, skill := range c.Doctor.Skills {
				if !week.Skills.Has(skill) {
					p.add("candidates", i+1, "skills", "unknown skill %q", skill)
				}
			}
		}
	} else {
		week.Skills = NewSkillSet(mentioned...)
	}

	if err := p.err(); err != nil {
		return nil, nil, err
	}

	if err := week.Validate(); err != nil {
		return nil, nil, err
	}

	return week, candidates, nil
}
