package model

// Validate checks that the week is internally consistent: unique identifiers,
// known skills, sane shift times, and no dangling doctor or shift references.
// All problems are reported together in a *ConfigError.
func (w *Week) Validate() error {
	var p problems

	doctorIDs := make(map[string]bool, len(w.Doctors))
	for i, d := range w.Doctors {
		row := i + 1
		switch {
		case d.ID == "":
			p.add("doctors", row, "id", "must not be empty")
		case doctorIDs[d.ID]:
			p.add("doctors", row, "id", "duplicate doctor id %q", d.ID)
		}
		doctorIDs[d.ID] = true

		if d.Role == "" {
			p.add("doctors", row, "role", "must not be empty")
		}
		if d.MaxHours <= 0 {
			p.add("doctors", row, "max_hours", "must be positive, got %d", d.MaxHours)
		}
		for _, skill := range d.Skills {
			if !w.Skills.Has(skill) {
				p.add("doctors", row, "skills", "unknown skill %q", skill)
			}
		}
	}

	shiftIDs := make(map[string]bool, len(w.Shifts))
	shiftCodes := make(map[string]bool, len(w.Shifts))
	for i, s := range w.Shifts {
		row := i + 1
		switch {
		case s.ID == "":
			p.add("shifts", row, "id", "must not be empty")
		case shiftIDs[s.ID]:
			p.add("shifts", row, "id", "duplicate shift id %q", s.ID)
		}
		shiftIDs[s.ID] = true

		switch {
		case s.Code == "":
			p.add("shifts", row, "code", "must not be empty")
		case shiftCodes[s.Code]:
			p.add("shifts", row, "code", "duplicate shift code %q", s.Code)
		}
		shiftCodes[s.Code] = true

		if !s.Day.IsValid() {
			p.add("shifts", row, "day", "invalid day %d", int(s.Day))
		}
		if !s.Department.IsValid() {
			p.add("shifts", row, "dept", "unknown department %q", s.Department)
		}
		if s.Hours <= 0 || s.Hours > HoursPerDay {
			p.add("shifts", row, "hours", "must be between 1 and %d, got %d", HoursPerDay, s.Hours)
		}
		if s.StartHour < 0 || s.StartHour >= HoursPerDay {
			p.add("shifts", row, "start_hour", "must be between 0 and 23, got %d", s.StartHour)
		}
		if s.EndHour <= s.StartHour || s.EndHour > s.StartHour+HoursPerDay {
			p.add("shifts", row, "end_hour", "must be after start_hour and at most 24 hours later, got %d", s.EndHour)
		}
		if s.MinStaff < 0 {
			p.add("shifts", row, "min_staff", "must not be negative, got %d", s.MinStaff)
		}
		if !w.Skills.Has(s.RequiredSkill) {
			p.add("shifts", row, "required_skill", "unknown skill %q", s.RequiredSkill)
		}
	}

	for i, u := range w.UnavailableDays {
		if !doctorIDs[u.DoctorID] {
			p.add("unavailability_day", i+1, "doctor_id", "unknown doctor %q", u.DoctorID)
		}
		if !u.Day.IsValid() {
			p.add("unavailability_day", i+1, "day", "invalid day %d", int(u.Day))
		}
	}

	for i, u := range w.UnavailableShifts {
		if !doctorIDs[u.DoctorID] {
			p.add("unavailability_shift", i+1, "doctor_id", "unknown doctor %q", u.DoctorID)
		}
		if !shiftIDs[u.ShiftID] {
			p.add("unavailability_shift", i+1, "shift", "unknown shift %q", u.ShiftID)
		}
	}

	for i, pref := range w.Preferences {
		if !doctorIDs[pref.DoctorID] {
			p.add("preferences", i+1, "doctor_id", "unknown doctor %q", pref.DoctorID)
		}
		if !shiftIDs[pref.ShiftID] {
			p.add("preferences", i+1, "shift", "unknown shift %q", pref.ShiftID)
		}
		if !pref.Polarity.IsValid() {
			p.add("preferences", i+1, "preference", "must be like or dislike, got %q", pref.Polarity)
		}
	}

	return p.err()
}
