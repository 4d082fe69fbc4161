package model

import (
	"fmt"
	"strings"
)

// Problem describes one invalid or dangling entry in the input tables
type Problem struct {
	Table   string
	Row     int // 1-based data row, 0 when not row specific
	Field   string
	Message string
}

func (p Problem) String() string {
	location := p.Table
	if p.Row > 0 {
		location = fmt.Sprintf("%s row %d", location, p.Row)
	}
	if p.Field != "" {
		location = fmt.Sprintf("%s, %s", location, p.Field)
	}
	return location + ": " + p.Message
}

// ConfigError is returned when the input tables are inconsistent.
// It is a configuration problem detected before solving, never solver infeasibility.
type ConfigError struct {
	Problems []Problem
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid roster input: " + e.Problems[0].String()
	}

	lines := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		lines = append(lines, "  - "+p.String())
	}
	return fmt.Sprintf("invalid roster input (%d problems):\n%s", len(e.Problems), strings.Join(lines, "\n"))
}

// problems collects Problems while walking the input tables
type problems struct {
	list []Problem
}

func (p *problems) add(table string, row int, field, format string, args ...any) {
	p.list = append(p.list, Problem{
		Table:   table,
		Row:     row,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// err returns a *ConfigError if any problem was recorded, nil otherwise
func (p *problems) err() error {
	if len(p.list) == 0 {
		return nil
	}
	return &ConfigError{Problems: p.list}
}
