// Package seed serves the static JSON fixtures that stand in for the
// database when it cannot be reached. Tables are read-only.
package seed

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed data/*.json
var embedded embed.FS

// Fixture file names.
const (
	Patients     = "patients.json"
	Staff        = "staff.json"
	Facilities   = "facilities.json"
	Drugs        = "drugs.json"
	Appointments = "appointments.json"
)

// FS returns the embedded fixture directory.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load decodes a JSON array of T from name. A missing file yields an empty
// slice so modules without fixtures still answer with no rows.
func Load[T any](fsys fs.FS, name string) ([]T, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", name, err)
	}
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", name, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// Table is an immutable in-memory row set.
type Table[T any] struct {
	rows []T
}

func NewTable[T any](rows []T) *Table[T] {
	return &Table[T]{rows: rows}
}

// LoadTable is Load followed by NewTable.
func LoadTable[T any](fsys fs.FS, name string) (*Table[T], error) {
	rows, err := Load[T](fsys, name)
	if err != nil {
		return nil, err
	}
	return NewTable(rows), nil
}

// Len is safe on a nil table.
func (t *Table[T]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Filter returns copies of the rows for which keep is true, in file order.
// A nil keep returns every row.
func (t *Table[T]) Filter(keep func(T) bool) []T {
	out := []T{}
	if t == nil {
		return out
	}
	for _, row := range t.rows {
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// Find returns the first row matching pred.
func (t *Table[T]) Find(pred func(T) bool) (T, bool) {
	var zero T
	if t == nil {
		return zero, false
	}
	for _, row := range t.rows {
		if pred(row) {
			return row, true
		}
	}
	return zero, false
}
