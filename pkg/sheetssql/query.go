package sheetssql

import (
	"fmt"

	"github.com/jakechorley/duty-roster/pkg/tabular"
)

// GetTableAs retrieves all rows from a table and maps them to structs of type T.
// The type row under the header is skipped.
func GetTableAs[T any](db *DB, tableName string) ([]T, error) {
	values, err := db.client.GetValues(db.spreadsheetID, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", tableName, err)
	}

	if len(values) < 3 {
		return []T{}, nil
	}

	rows := tabular.FromCells(values)
	// Drop the type row
	rows = append(rows[:1], rows[2:]...)

	results, err := tabular.Decode[T](rows)
	if err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", tableName, err)
	}
	return results, nil
}

// InsertModels appends structs as rows to their corresponding table. Every
// cell is checked against the column types first, so a bad row never
// reaches the sheet.
func InsertModels[T any](db *DB, models []T) error {
	if len(models) == 0 {
		return nil
	}

	var model T
	name := tabular.TableName(model)
	table, ok := db.Table(name)
	if !ok {
		return fmt.Errorf("table %s is not in the schema", name)
	}

	rows, err := tabular.Encode(models)
	if err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	// rows[0] is the header; the table already has one
	data := rows[1:]
	if err := checkRows(table, data); err != nil {
		return fmt.Errorf("invalid %s row: %w", name, err)
	}

	return db.InsertRows(name, tabular.ToCells(data))
}
