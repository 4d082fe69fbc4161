package sheetsclient

import (
	"fmt"
	"slices"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/tabular"
)

// Input tab titles. Every tab has a header row; the candidates tab is optional.
const (
	DoctorsTab           = "doctors"
	ShiftsTab            = "shifts"
	UnavailableDaysTab   = "unavailabilities_day"
	UnavailableShiftsTab = "unavailabilities_shift"
	PreferencesTab       = "preferences"
	CandidatesTab        = "candidates"
)

// ReadTables reads the roster input tabs of a spreadsheet
func (c *Client) ReadTables(spreadsheetID string) (model.Tables, error) {
	titles, err := c.SheetTitles(spreadsheetID)
	if err != nil {
		return model.Tables{}, err
	}

	var (
		t       model.Tables
		readErr error
	)
	read := func(tab string, optional bool, decode func(rows [][]string) error) {
		if readErr != nil {
			return
		}
		if !slices.Contains(titles, tab) {
			if !optional {
				readErr = fmt.Errorf("spreadsheet has no %q tab", tab)
			}
			return
		}
		values, err := c.GetValues(spreadsheetID, tab)
		if err != nil {
			readErr = fmt.Errorf("failed to read %s: %w", tab, err)
			return
		}
		if err := decode(tabular.FromCells(values)); err != nil {
			readErr = fmt.Errorf("failed to parse %s: %w", tab, err)
		}
	}

	read(DoctorsTab, false, func(rows [][]string) (err error) {
		t.Doctors, err = tabular.Decode[model.DoctorRecord](rows)
		return err
	})
	read(ShiftsTab, false, func(rows [][]string) (err error) {
		t.Shifts, err = tabular.Decode[model.ShiftRecord](rows)
		return err
	})
	read(UnavailableDaysTab, true, func(rows [][]string) (err error) {
		t.UnavailableDays, err = tabular.Decode[model.UnavailabilityDayRecord](rows)
		return err
	})
	read(UnavailableShiftsTab, true, func(rows [][]string) (err error) {
		t.UnavailableShifts, err = tabular.Decode[model.UnavailabilityShiftRecord](rows)
		return err
	})
	read(PreferencesTab, true, func(rows [][]string) (err error) {
		t.Preferences, err = tabular.Decode[model.PreferenceRecord](rows)
		return err
	})
	read(CandidatesTab, true, func(rows [][]string) (err error) {
		t.Candidates, err = tabular.Decode[model.CandidateRecord](rows)
		return err
	})

	if readErr != nil {
		return model.Tables{}, readErr
	}
	return t, nil
}
