package csvclient

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/core/roster"
	"github.com/jakechorley/duty-roster/pkg/tabular"
)

// Input file names. doctors.csv and shifts.csv are required, the rest may be absent.
const (
	DoctorsFile           = "doctors.csv"
	ShiftsFile            = "shifts.csv"
	UnavailableDaysFile   = "unavailabilities_day.csv"
	UnavailableShiftsFile = "unavailabilities_shift.csv"
	PreferencesFile       = "preferences.csv"
	CandidatesFile        = "candidates.csv"
)

// Output file names
const (
	ScheduleFile = "schedule_output.csv"
	StatsFile    = "doctor_stats.csv"
	SummaryFile  = "solver_stats.csv"
)

// Client reads roster input tables from, and writes results to, a directory of CSV files
type Client struct {
	dir string
}

// NewClient creates a client rooted at dir
func NewClient(dir string) *Client {
	return &Client{dir: dir}
}

// Dir returns the directory the client reads and writes
func (c *Client) Dir() string {
	return c.dir
}

// ReadTables reads every input table in the directory
func (c *Client) ReadTables() (model.Tables, error) {
	var t model.Tables
	var err error

	if t.Doctors, err = readTable[model.DoctorRecord](c.path(DoctorsFile), false); err != nil {
		return model.Tables{}, err
	}
	if t.Shifts, err = readTable[model.ShiftRecord](c.path(ShiftsFile), false); err != nil {
		return model.Tables{}, err
	}
	if t.UnavailableDays, err = readTable[model.UnavailabilityDayRecord](c.path(UnavailableDaysFile), true); err != nil {
		return model.Tables{}, err
	}
	if t.UnavailableShifts, err = readTable[model.UnavailabilityShiftRecord](c.path(UnavailableShiftsFile), true); err != nil {
		return model.Tables{}, err
	}
	if t.Preferences, err = readTable[model.PreferenceRecord](c.path(PreferencesFile), true); err != nil {
		return model.Tables{}, err
	}
	if t.Candidates, err = readTable[model.CandidateRecord](c.path(CandidatesFile), true); err != nil {
		return model.Tables{}, err
	}

	return t, nil
}

// WriteRoster writes the schedule, per-doctor statistics and solver summary
// of a result and returns the paths written
func (c *Client) WriteRoster(result *roster.Result) ([]string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := []string{c.path(ScheduleFile), c.path(StatsFile), c.path(SummaryFile)}

	if err := writeTable(paths[0], result.ScheduleRecords()); err != nil {
		return nil, err
	}
	if err := writeTable(paths[1], result.StatsRecords()); err != nil {
		return nil, err
	}
	if err := writeTable(paths[2], []roster.SummaryRecord{result.SummaryRecord()}); err != nil {
		return nil, err
	}

	return paths, nil
}

func (c *Client) path(name string) string {
	return filepath.Join(c.dir, name)
}

// readTable decodes a CSV file with a header row. A missing optional file is
// an empty table.
func readTable[T any](path string, optional bool) ([]T, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && optional {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	rows, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	records, err := tabular.Decode[T](rows)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// ReadCSV reads every row of a CSV stream. Rows may have differing lengths.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func writeTable[T any](path string, records []T) error {
	rows, err := tabular.Encode(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
