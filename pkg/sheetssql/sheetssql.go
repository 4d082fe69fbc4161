package sheetssql

import (
	"fmt"
)

// SheetsClient is the part of the Sheets API a DB needs
type SheetsClient interface {
	GetValues(spreadsheetID, sheetRange string) ([][]interface{}, error)
	AppendRows(spreadsheetID, sheetRange string, values [][]interface{}) error
	SheetTitles(spreadsheetID string) ([]string, error)
	CreateSheet(spreadsheetID, sheetTitle string) (int64, error)
}

// Column is one typed column of a table
type Column struct {
	Name string
	Type string // one of the Type* constants
}

// TableSchema is one tab: a header row of column names, then a row of
// column types, then the data
type TableSchema struct {
	Name    string
	Columns []Column
}

// headerRows returns the header and type rows the tab starts with
func (t TableSchema) headerRows() [][]interface{} {
	names := make([]interface{}, len(t.Columns))
	types := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
		types[i] = col.Type
	}
	return [][]interface{}{names, types}
}

// headerRange is the A1 range of the header and type rows
func (t TableSchema) headerRange() string {
	return fmt.Sprintf("%s!A1:%s2", t.Name, columnLetter(max(len(t.Columns)-1, 0)))
}

// Schema is the set of tables stored in one spreadsheet
type Schema struct {
	Tables []TableSchema
}

func (s *Schema) validate() error {
	seen := make(map[string]bool, len(s.Tables))
	for _, table := range s.Tables {
		if seen[table.Name] {
			return fmt.Errorf("table %s is declared twice", table.Name)
		}
		seen[table.Name] = true
	}
	return nil
}

// DB is a spreadsheet used as a typed table store. Tables are created on
// first use and checked against the schema on every open.
type DB struct {
	client        SheetsClient
	spreadsheetID string
	tables        map[string]TableSchema
}

// NewDB opens the spreadsheet, creating missing tables and verifying the rest
func NewDB(client SheetsClient, spreadsheetID string, schema *Schema) (*DB, error) {
	if err := schema.validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	db := &DB{
		client:        client,
		spreadsheetID: spreadsheetID,
		tables:        make(map[string]TableSchema, len(schema.Tables)),
	}
	for _, table := range schema.Tables {
		db.tables[table.Name] = table
	}

	if err := db.ensureTables(schema.Tables); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// Table returns the schema of a table
func (db *DB) Table(name string) (TableSchema, bool) {
	table, ok := db.tables[name]
	return table, ok
}

// InsertRows appends rows to the specified table
func (db *DB) InsertRows(tableName string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	return db.client.AppendRows(db.spreadsheetID, tableName, rows)
}

// columnLetter converts a zero-based column index to A1 letters (0 = A, 26 = AA)
func columnLetter(i int) string {
	var letters []byte
	for ; i >= 0; i = i/26 - 1 {
		letters = append([]byte{byte('A' + i%26)}, letters...)
	}
	return string(letters)
}
