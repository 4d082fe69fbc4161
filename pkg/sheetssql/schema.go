package sheetssql

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jakechorley/duty-roster/pkg/tabular"
)

// SchemaFromModels builds a Schema from struct definitions. Each struct is a
// table named after the struct in snake_case; every field needs a
// `col:"column_name"` tag and a `ssql_type:"column_type"` tag.
func SchemaFromModels(models ...interface{}) (*Schema, error) {
	schema := &Schema{Tables: make([]TableSchema, 0, len(models))}
	for _, model := range models {
		table, err := tableFromModel(model)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

func tableFromModel(model interface{}) (TableSchema, error) {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return TableSchema{}, fmt.Errorf("model must be a struct, got %s", t.Kind())
	}
	if t.NumField() == 0 {
		return TableSchema{}, fmt.Errorf("struct %s has no fields", t.Name())
	}

	table := TableSchema{Name: tabular.TableName(model)}
	seen := make(map[string]bool, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		col, err := columnFromField(field)
		if err != nil {
			return TableSchema{}, fmt.Errorf("field %s.%s %w", t.Name(), field.Name, err)
		}
		if seen[col.Name] {
			return TableSchema{}, fmt.Errorf("field %s.%s reuses column %q", t.Name(), field.Name, col.Name)
		}
		seen[col.Name] = true
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

func columnFromField(field reflect.StructField) (Column, error) {
	name, _, _ := strings.Cut(field.Tag.Get("col"), ",")
	if name == "" {
		return Column{}, errors.New("missing 'col' tag")
	}
	typ := field.Tag.Get("ssql_type")
	switch {
	case typ == "":
		return Column{}, errors.New("missing 'ssql_type' tag")
	case !knownType(typ):
		return Column{}, fmt.Errorf("has unknown ssql_type %q", typ)
	}
	return Column{Name: name, Type: typ}, nil
}

// MismatchError lists every way an existing tab differs from its table schema
type MismatchError struct {
	Table    string
	Problems []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("table %s does not match its schema: %s", e.Table, strings.Join(e.Problems, "; "))
}

// ensureTables creates the tables the spreadsheet lacks and verifies the others
func (db *DB) ensureTables(tables []TableSchema) error {
	titles, err := db.client.SheetTitles(db.spreadsheetID)
	if err != nil {
		return fmt.Errorf("failed to get existing sheets: %w", err)
	}
	existing := make(map[string]bool, len(titles))
	for _, title := range titles {
		existing[title] = true
	}

	for _, table := range tables {
		if !existing[table.Name] {
			if err := db.createTable(table); err != nil {
				return fmt.Errorf("failed to create table %s: %w", table.Name, err)
			}
			continue
		}

		rows, err := db.client.GetValues(db.spreadsheetID, table.headerRange())
		if err != nil {
			return fmt.Errorf("failed to read table %s headers: %w", table.Name, err)
		}
		if problems := headerProblems(table, rows); len(problems) > 0 {
			return &MismatchError{Table: table.Name, Problems: problems}
		}
	}

	return nil
}

// headerProblems compares the first two rows of a tab with the table schema
func headerProblems(table TableSchema, rows [][]interface{}) []string {
	if len(rows) < 2 {
		return []string{"missing the header or type row"}
	}

	names, types := rows[0], rows[1]
	var problems []string
	if len(names) != len(table.Columns) {
		problems = append(problems, fmt.Sprintf("has %d columns, want %d", len(names), len(table.Columns)))
	}

	for i, col := range table.Columns {
		if i >= len(names) {
			problems = append(problems, fmt.Sprintf("column %s is missing", col.Name))
			continue
		}
		if name, _ := names[i].(string); name != col.Name {
			problems = append(problems, fmt.Sprintf("column %d is %v, want %s", i+1, names[i], col.Name))
			continue
		}
		var typ interface{} = ""
		if i < len(types) {
			typ = types[i]
		}
		if s, _ := typ.(string); s != col.Type {
			problems = append(problems, fmt.Sprintf("column %s has type %v, want %s", col.Name, typ, col.Type))
		}
	}

	return problems
}

// createTable adds the tab and writes its header and type rows
func (db *DB) createTable(table TableSchema) error {
	if _, err := db.client.CreateSheet(db.spreadsheetID, table.Name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := db.client.AppendRows(db.spreadsheetID, table.Name, table.headerRows()); err != nil {
		return fmt.Errorf("failed to write headers and types: %w", err)
	}
	return nil
}
