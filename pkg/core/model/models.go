package model

import (
	"fmt"
	"slices"
	"strings"
)

// HoursPerDay and DaysPerWeek define the absolute hour axis of a roster week.
// Hour 0 is Monday 00:00, hour 168 is the following Monday 00:00.
const (
	HoursPerDay  = 24
	DaysPerWeek  = 7
	HoursPerWeek = HoursPerDay * DaysPerWeek
)

// NightCodeMarker marks a shift code as a night shift
const NightCodeMarker = "_N_"

// Day is a calendar day of the roster week, Monday first
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayCodes = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// AllDays returns the days of the week in order
func AllDays() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

func (d Day) String() string {
	if !d.IsValid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayCodes[d]
}

func (d Day) IsValid() bool {
	return d >= Monday && d <= Sunday
}

// ParseDay parses a three letter day code (Mon..Sun)
func ParseDay(s string) (Day, error) {
	for i, code := range dayCodes {
		if strings.EqualFold(code, strings.TrimSpace(s)) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// Department is the hospital unit a shift belongs to
type Department string

const (
	DepartmentWard   Department = "WARD"
	DepartmentICU    Department = "ICU"
	DepartmentClinic Department = "CLINIC"
)

// Departments returns the known departments in reporting order
func Departments() []Department {
	return []Department{DepartmentWard, DepartmentICU, DepartmentClinic}
}

func (d Department) IsValid() bool {
	return d == DepartmentWard || d == DepartmentICU || d == DepartmentClinic
}

// Role is a doctor's grade
type Role string

const (
	RoleIntern        Role = "intern"
	RoleResident      Role = "resident"
	RoleSpecialist    Role = "specialist"
	RoleICUSpecialist Role = "icu_specialist"
)

// IsSpecialist reports whether the role can act as a mentor on a shift
func (r Role) IsSpecialist() bool {
	return r == RoleSpecialist || r == RoleICUSpecialist
}

// Polarity is the direction of a preference
type Polarity string

const (
	PolarityLike    Polarity = "like"
	PolarityDislike Polarity = "dislike"
)

func (p Polarity) IsValid() bool {
	return p == PolarityLike || p == PolarityDislike
}

// SkillSet is a sorted set of capability tags
type SkillSet []string

// NewSkillSet builds a sorted, de-duplicated skill set
func NewSkillSet(skills ...string) SkillSet {
	set := slices.Clone(skills)
	slices.Sort(set)
	return slices.Compact(set)
}

// Has returns true if the skill is in the set
func (s SkillSet) Has(skill string) bool {
	_, found := slices.BinarySearch(s, skill)
	return found
}

// Doctor is a member of the staff pool. Immutable for the duration of one solve.
type Doctor struct {
	ID                string
	Name              string
	Role              Role
	Skills            SkillSet
	MaxHours          int
	TwentyFourAllowed bool
	NeedsMentor       bool
}

// Shift is a fixed slot of the roster week
type Shift struct {
	ID   string
	Code string
	Day  Day

	// StartHour and EndHour are hours relative to the start of Day.
	// EndHour may exceed 24 for shifts that cross midnight.
	StartHour int
	EndHour   int

	Hours         int
	Department    Department
	RequiredSkill string
	MinStaff      int
}

// AbsStart returns the start of the shift as an offset in the 168-hour week
func (s Shift) AbsStart() int {
	return int(s.Day)*HoursPerDay + s.StartHour
}

// AbsEnd returns the end of the shift as an offset in the 168-hour week
func (s Shift) AbsEnd() int {
	return int(s.Day)*HoursPerDay + s.EndHour
}

// IsTwentyFour returns true for 24-hour duties
func (s Shift) IsTwentyFour() bool {
	return s.Hours == HoursPerDay
}

// IsNight returns true for night shifts and 24-hour duties
func (s Shift) IsNight() bool {
	return strings.Contains(s.Code, NightCodeMarker) || s.IsTwentyFour()
}

// DayUnavailability excludes a doctor from every shift on a day
type DayUnavailability struct {
	DoctorID string
	Day      Day
}

// ShiftUnavailability excludes a doctor from one shift
type ShiftUnavailability struct {
	DoctorID string
	ShiftID  string
}

// Preference is a soft like/dislike signal for a (doctor, shift) pair
type Preference struct {
	DoctorID string
	ShiftID  string
	Polarity Polarity
}

// Candidate is a hireable doctor considered when the pool cannot cover the week
type Candidate struct {
	Doctor Doctor
	Cost   float64
}

// Week holds every input of a single roster computation
type Week struct {
	Doctors           []Doctor
	Shifts            []Shift
	UnavailableDays   []DayUnavailability
	UnavailableShifts []ShiftUnavailability
	Preferences       []Preference

	// Skills is the catalog of known skill tags. Every doctor skill and
	// required skill must be in it.
	Skills SkillSet
}

// DoctorByID returns the doctor with the given ID
func (w *Week) DoctorByID(id string) (Doctor, bool) {
	for _, d := range w.Doctors {
		if d.ID == id {
			return d, true
		}
	}
	return Doctor{}, false
}

// ShiftByID returns the shift with the given ID
func (w *Week) ShiftByID(id string) (Shift, bool) {
	for _, s := range w.Shifts {
		if s.ID == id {
			return s, true
		}
	}
	return Shift{}, false
}

// ShiftByCode returns the shift with the given code
func (w *Week) ShiftByCode(code string) (Shift, bool) {
	for _, s := range w.Shifts {
		if s.Code == code {
			return s, true
		}
	}
	return Shift{}, false
}

// WithDoctor returns a copy of the week with one more doctor appended to the pool.
// The shift, unavailability and preference tables are shared with the receiver.
func (w *Week) WithDoctor(doctor Doctor) *Week {
	extended := *w
	extended.Doctors = append(slices.Clone(w.Doctors), doctor)
	extended.Skills = NewSkillSet(append(slices.Clone(w.Skills), doctor.Skills...)...)
	return &extended
}
