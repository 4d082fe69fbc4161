package sheetssql

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestRun struct {
	ID        string `col:"id" ssql_type:"uuid"`
	Week      string `col:"week" ssql_type:"date"`
	Objective int64  `col:"objective" ssql_type:"int"`
	Extended  bool   `col:"extended" ssql_type:"bool"`
}

type TestAssignment struct {
	RunID    string `col:"run_id" ssql_type:"uuid"`
	ShiftID  string `col:"shift_id" ssql_type:"text"`
	DoctorID string `col:"doctor_id" ssql_type:"text"`
}

// memorySheets is an in-memory spreadsheet keyed by tab title
type memorySheets struct {
	tabs    map[string][][]interface{}
	created []string
	failGet bool
}

func newMemorySheets() *memorySheets {
	return &memorySheets{tabs: make(map[string][][]interface{})}
}

func (m *memorySheets) GetValues(_, sheetRange string) ([][]interface{}, error) {
	if m.failGet {
		return nil, errors.New("boom")
	}
	tab, _, _ := strings.Cut(sheetRange, "!")
	return m.tabs[tab], nil
}

func (m *memorySheets) AppendRows(_, sheetRange string, values [][]interface{}) error {
	m.tabs[sheetRange] = append(m.tabs[sheetRange], values...)
	return nil
}

func (m *memorySheets) SheetTitles(string) ([]string, error) {
	titles := make([]string, 0, len(m.tabs))
	for title := range m.tabs {
		titles = append(titles, title)
	}
	return titles, nil
}

func (m *memorySheets) CreateSheet(_, title string) (int64, error) {
	m.tabs[title] = nil
	m.created = append(m.created, title)
	return int64(len(m.created)), nil
}

func TestSchemaFromModels(t *testing.T) {
	schema, err := SchemaFromModels(TestRun{}, &TestAssignment{})
	require.NoError(t, err)

	require.Len(t, schema.Tables, 2)
	assert.Equal(t, "test_run", schema.Tables[0].Name)
	assert.Equal(t, []Column{
		{Name: "id", Type: "uuid"},
		{Name: "week", Type: "date"},
		{Name: "objective", Type: "int"},
		{Name: "extended", Type: "bool"},
	}, schema.Tables[0].Columns)
	assert.Equal(t, "test_assignment", schema.Tables[1].Name)
	assert.Len(t, schema.Tables[1].Columns, 3)
}

func TestSchemaFromModels_Errors(t *testing.T) {
	type MissingHeader struct {
		ID string `ssql_type:"uuid"`
	}
	type MissingType struct {
		ID string `col:"id"`
	}
	type UnknownType struct {
		ID string `col:"id" ssql_type:"varchar"`
	}
	type DuplicateColumn struct {
		ID    string `col:"id" ssql_type:"uuid"`
		Other string `col:"id" ssql_type:"text"`
	}

	tests := []struct {
		name     string
		model    interface{}
		expected string
	}{
		{"missing col tag", MissingHeader{}, "missing 'col' tag"},
		{"missing type tag", MissingType{}, "missing 'ssql_type' tag"},
		{"unknown type", UnknownType{}, `unknown ssql_type "varchar"`},
		{"not a struct", "not a struct", "must be a struct"},
		{"no fields", struct{}{}, "has no fields"},
		{"duplicate column", DuplicateColumn{}, `reuses column "id"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SchemaFromModels(tt.model)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestNewDB_CreatesMissingTables(t *testing.T) {
	sheets := newMemorySheets()
	schema, err := SchemaFromModels(TestRun{}, TestAssignment{})
	require.NoError(t, err)

	_, err = NewDB(sheets, "db", schema)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"test_run", "test_assignment"}, sheets.created)
	assert.Equal(t, [][]interface{}{
		{"id", "week", "objective", "extended"},
		{"uuid", "date", "int", "bool"},
	}, sheets.tabs["test_run"])
}

func TestNewDB_VerifiesExistingTables(t *testing.T) {
	schema, err := SchemaFromModels(TestAssignment{})
	require.NoError(t, err)

	t.Run("matching", func(t *testing.T) {
		sheets := newMemorySheets()
		sheets.tabs["test_assignment"] = [][]interface{}{
			{"run_id", "shift_id", "doctor_id"},
			{"uuid", "text", "text"},
		}
		_, err := NewDB(sheets, "db", schema)
		require.NoError(t, err)
		assert.Empty(t, sheets.created)
	})

	t.Run("wrong type", func(t *testing.T) {
		sheets := newMemorySheets()
		sheets.tabs["test_assignment"] = [][]interface{}{
			{"run_id", "shift_id", "doctor_id"},
			{"uuid", "int", "text"},
		}
		_, err := NewDB(sheets, "db", schema)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "column shift_id has type int, want text")
	})

	t.Run("missing type row", func(t *testing.T) {
		sheets := newMemorySheets()
		sheets.tabs["test_assignment"] = [][]interface{}{{"run_id", "shift_id", "doctor_id"}}
		_, err := NewDB(sheets, "db", schema)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing the header or type row")
	})

	t.Run("every difference is reported", func(t *testing.T) {
		sheets := newMemorySheets()
		sheets.tabs["test_assignment"] = [][]interface{}{
			{"run_id", "shift", "doctor_id", "notes"},
			{"text", "text", "text", "text"},
		}
		_, err := NewDB(sheets, "db", schema)

		var mismatch *MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "test_assignment", mismatch.Table)
		assert.Equal(t, []string{
			"has 4 columns, want 3",
			"column run_id has type text, want uuid",
			"column 2 is shift, want shift_id",
		}, mismatch.Problems)
	})
}

func TestNewDB_RejectsDuplicateTables(t *testing.T) {
	schema, err := SchemaFromModels(TestRun{}, &TestRun{})
	require.NoError(t, err)

	_, err = NewDB(newMemorySheets(), "db", schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table test_run is declared twice")
}

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{0: "A", 3: "D", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"}
	for index, want := range tests {
		assert.Equal(t, want, columnLetter(index), index)
	}

	table := TableSchema{Name: "runs", Columns: make([]Column, 4)}
	assert.Equal(t, "runs!A1:D2", table.headerRange())
}

func TestInsertAndGetTable(t *testing.T) {
	sheets := newMemorySheets()
	schema, err := SchemaFromModels(TestRun{})
	require.NoError(t, err)
	db, err := NewDB(sheets, "db", schema)
	require.NoError(t, err)

	empty, err := GetTableAs[TestRun](db, "test_run")
	require.NoError(t, err)
	assert.Empty(t, empty)

	runs := []TestRun{
		{ID: "6f1c2a34-0d5e-4b8a-9c71-2e3f4a5b6c7d", Week: "2025-03-03", Objective: 5996, Extended: true},
		{ID: "0b9e8d7c-6a5f-4e3d-8c2b-1a0f9e8d7c6b", Week: "2025-03-10", Objective: 12},
	}
	require.NoError(t, InsertModels(db, runs))
	require.NoError(t, InsertModels(db, []TestRun{}))

	got, err := GetTableAs[TestRun](db, "test_run")
	require.NoError(t, err)
	assert.Equal(t, runs, got)
}

func TestInsertModels_ChecksColumnTypes(t *testing.T) {
	sheets := newMemorySheets()
	schema, err := SchemaFromModels(TestRun{})
	require.NoError(t, err)
	db, err := NewDB(sheets, "db", schema)
	require.NoError(t, err)

	tests := []struct {
		name     string
		run      TestRun
		expected string
	}{
		{"bad uuid", TestRun{ID: "run-1", Week: "2025-03-03"}, `column id: "run-1" is not a valid uuid`},
		{"bad date", TestRun{ID: "6f1c2a34-0d5e-4b8a-9c71-2e3f4a5b6c7d", Week: "03/03/2025"}, "column week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InsertModels(db, []TestRun{tt.run})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}

	// Only the header and type rows were written
	assert.Len(t, sheets.tabs["test_run"], 2)

	err = InsertModels(db, []TestAssignment{{RunID: "6f1c2a34-0d5e-4b8a-9c71-2e3f4a5b6c7d"}})
	assert.ErrorContains(t, err, "table test_assignment is not in the schema")
}

func TestCheckCell(t *testing.T) {
	tests := []struct {
		typ   string
		value string
		valid bool
	}{
		{TypeText, "anything", true},
		{TypeInt, "", true},
		{TypeInt, "-12", true},
		{TypeInt, "1.5", false},
		{TypeBool, "true", true},
		{TypeBool, "yes", false},
		{TypeUUID, "6f1c2a34-0d5e-4b8a-9c71-2e3f4a5b6c7d", true},
		{TypeDate, "2025-02-30", false},
		{TypeTimestamp, "2025-03-01T09:00:00Z", true},
		{TypeTimestamp, "2025-03-01 09:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.value, func(t *testing.T) {
			err := checkCell(tt.typ, tt.value)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetTableAs_Error(t *testing.T) {
	sheets := newMemorySheets()
	db := &DB{client: sheets, spreadsheetID: "db", schema: &Schema{}}
	sheets.failGet = true

	_, err := GetTableAs[TestRun](db, "test_run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get table test_run")
}
