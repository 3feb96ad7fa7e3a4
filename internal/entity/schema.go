package entity

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const devSuffix = "_dev"

// Schema describes how one entity table is laid out and displayed.
type Schema struct {
	// Table is the backing table name.
	Table string
	// IDColumn is the primary key column; it must be Columns[0].
	IDColumn string
	// NameColumn is the column that must be unique among live rows.
	NameColumn string
	// Columns is the column order used for reads and grid cells.
	Columns []string
	// Headers are the display labels, paired 1:1 with Columns.
	Headers []string
	// DisplayName is the human label, e.g. "Supplier".
	DisplayName string
	// StretchColumn names the header that fills the remaining grid width.
	StretchColumn string
}

// Validate checks the schema invariants.
func (s Schema) Validate() error {
	if s.Table == "" {
		return errors.New("entity: schema table required")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("entity: schema %s has no columns", s.Table)
	}
	if len(s.Columns) != len(s.Headers) {
		return fmt.Errorf("entity: schema %s has %d columns but %d headers", s.Table, len(s.Columns), len(s.Headers))
	}
	if s.IDColumn == "" || s.Columns[0] != s.IDColumn {
		return fmt.Errorf("entity: schema %s must list id column %q first", s.Table, s.IDColumn)
	}
	if s.NameColumn != "" && !s.HasColumn(s.NameColumn) {
		return fmt.Errorf("entity: schema %s name column %q not in columns", s.Table, s.NameColumn)
	}
	return nil
}

// HasColumn reports whether col is part of the column order.
func (s Schema) HasColumn(col string) bool {
	return slices.Contains(s.Columns, col)
}

// ColumnIndex returns the position of col, or -1.
func (s Schema) ColumnIndex(col string) int {
	return slices.Index(s.Columns, col)
}

// ForDevMode returns a copy pointing at the development table.
func (s Schema) ForDevMode() Schema {
	out := s
	out.Columns = slices.Clone(s.Columns)
	out.Headers = slices.Clone(s.Headers)
	if !strings.HasSuffix(out.Table, devSuffix) {
		out.Table += devSuffix
	}
	return out
}
