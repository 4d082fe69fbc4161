package sheetssql

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Column types understood by the schema. An empty cell is valid for every
// type and reads back as the zero value (or nil for pointer fields).
const (
	TypeText      = "text"
	TypeInt       = "int"
	TypeBool      = "bool"
	TypeUUID      = "uuid"
	TypeDate      = "date"
	TypeTimestamp = "timestamp"
)

func knownType(typ string) bool {
	switch typ {
	case TypeText, TypeInt, TypeBool, TypeUUID, TypeDate, TypeTimestamp:
		return true
	}
	return false
}

// checkCell reports whether value can be stored in a column of type typ
func checkCell(typ, value string) error {
	if value == "" {
		return nil
	}

	var err error
	switch typ {
	case TypeInt:
		_, err = strconv.ParseInt(value, 10, 64)
	case TypeBool:
		_, err = strconv.ParseBool(value)
	case TypeUUID:
		_, err = uuid.Parse(value)
	case TypeDate:
		_, err = time.Parse(time.DateOnly, value)
	case TypeTimestamp:
		_, err = time.Parse(time.RFC3339, value)
	}
	if err != nil {
		return fmt.Errorf("%q is not a valid %s", value, typ)
	}
	return nil
}

// checkRows validates encoded data rows against a table's column types
func checkRows(table TableSchema, rows [][]string) error {
	for r, row := range rows {
		for c, col := range table.Columns {
			if c >= len(row) {
				break
			}
			if err := checkCell(col.Type, row[c]); err != nil {
				return fmt.Errorf("row %d, column %s: %w", r+1, col.Name, err)
			}
		}
	}
	return nil
}
