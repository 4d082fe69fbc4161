package tabular

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Fields are mapped with a `col:"name"` tag. `col:"name,optional"` marks a
// column that may be absent from the header; fields without a tag are ignored.
const tagName = "col"

type column struct {
	name     string
	optional bool
	index    int // struct field index
}

// columnsOf returns the tagged fields of a struct type in declaration order
func columnsOf(t reflect.Type) ([]column, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", t.Kind())
	}

	columns := make([]column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		columns = append(columns, column{
			name:     name,
			optional: opts == "optional",
			index:    i,
		})
	}
	return columns, nil
}

// Header returns the column names of T in declaration order
func Header[T any]() ([]string, error) {
	var model T
	columns, err := columnsOf(reflect.TypeOf(model))
	if err != nil {
		return nil, err
	}
	header := make([]string, 0, len(columns))
	for _, c := range columns {
		header = append(header, c.name)
	}
	return header, nil
}

// Decode maps a table with a header row onto structs of type T.
// Header names are matched case-insensitively after trimming. Extra columns
// are ignored; a missing column is an error unless the field is optional.
// Blank lines are skipped.
func Decode[T any](rows [][]string) ([]T, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("table has no header row")
	}

	var model T
	t := reflect.TypeOf(model)
	columns, err := columnsOf(t)
	if err != nil {
		return nil, err
	}

	// Build mapping of column name to index
	columnIndexes := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columnIndexes[normalise(header)] = i
	}

	positions := make([]int, len(columns))
	for i, c := range columns {
		pos, ok := columnIndexes[normalise(c.name)]
		if !ok {
			if !c.optional {
				return nil, fmt.Errorf("missing column %q", c.name)
			}
			pos = -1
		}
		positions[i] = pos
	}

	results := make([]T, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		if isBlank(row) {
			continue
		}

		result := reflect.New(t).Elem()
		for i, c := range columns {
			pos := positions[i]
			if pos < 0 || pos >= len(row) {
				// Column is empty in this row
				continue
			}
			if err := setFieldValue(result.Field(c.index), strings.TrimSpace(row[pos])); err != nil {
				// +2: 1-based, after the header
				return nil, fmt.Errorf("row %d, column %s: %w", rowIdx+2, c.name, err)
			}
		}
		results = append(results, result.Interface().(T))
	}

	return results, nil
}

// Encode renders structs of type T as a table with a header row
func Encode[T any](models []T) ([][]string, error) {
	var model T
	columns, err := columnsOf(reflect.TypeOf(model))
	if err != nil {
		return nil, err
	}

	header := make([]string, 0, len(columns))
	for _, c := range columns {
		header = append(header, c.name)
	}

	rows := make([][]string, 0, len(models)+1)
	rows = append(rows, header)
	for _, m := range models {
		v := reflect.ValueOf(m)
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			row = append(row, formatValue(v.Field(c.index)))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FromCells converts spreadsheet cells to strings
func FromCells(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, cells := range values {
		row := make([]string, 0, len(cells))
		for _, cell := range cells {
			switch v := cell.(type) {
			case nil:
				row = append(row, "")
			case string:
				row = append(row, v)
			default:
				row = append(row, fmt.Sprint(v))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ToCells converts string rows to spreadsheet cells
func ToCells(rows [][]string) [][]interface{} {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, s := range row {
			cells = append(cells, s)
		}
		values = append(values, cells)
	}
	return values
}

// TableName converts a PascalCase struct name to a snake_case table name
func TableName(model any) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var result strings.Builder
	for i, r := range t.Name() {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

func normalise(header string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// setFieldValue converts a cell to the field's type and sets it. Empty cells
// leave the zero value.
func setFieldValue(field reflect.Value, cell string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}
	if cell == "" {
		return nil
	}

	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if err := setFieldValue(elem.Elem(), cell); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(cell)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intVal, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			// Spreadsheet exports often write whole numbers as 8.0
			floatVal, ferr := strconv.ParseFloat(cell, 64)
			if ferr != nil || floatVal != float64(int64(floatVal)) {
				return fmt.Errorf("failed to parse int: %w", err)
			}
			intVal = int64(floatVal)
		}
		field.SetInt(intVal)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintVal, err := strconv.ParseUint(cell, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse uint: %w", err)
		}
		field.SetUint(uintVal)

	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return fmt.Errorf("failed to parse float: %w", err)
		}
		field.SetFloat(floatVal)

	case reflect.Bool:
		boolVal, err := parseBool(cell)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

func parseBool(cell string) (bool, error) {
	switch strings.ToLower(cell) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	boolVal, err := strconv.ParseBool(cell)
	if err != nil {
		return false, fmt.Errorf("failed to parse bool: %w", err)
	}
	return boolVal, nil
}

func formatValue(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprint(v.Interface())
	}
}
