// Package tableview keeps an in-memory result set and the rendered grid in
// sync: rows are rendered, appended or replaced in place, sorted, filtered by
// hiding, and read back into records to seed edit forms.
package tableview

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/onexcrm/onexcrm/internal/entity"
)

// ResizeMode controls how a column takes horizontal space.
type ResizeMode int

const (
	// ResizeToContents sizes the column to its widest cell.
	ResizeToContents ResizeMode = iota
	// Stretch fills the width left over by the other columns.
	Stretch
)

const (
	stretchWidth = 100
	contentWidth = 120
)

// SortOrder is the direction of a column sort.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// NoSort is the sort indicator column before any user sort.
const NoSort = -1

// Column describes one grid column.
type Column struct {
	Label  string     `json:"label"`
	Mode   ResizeMode `json:"mode"`
	Width  int        `json:"width"`
	Hidden bool       `json:"hidden"`
}

// Cell is one displayed value. Null cells have no item at all.
type Cell struct {
	Text  string `json:"text"`
	Valid bool   `json:"valid"`
}

type row struct {
	key    int64
	cells  []Cell
	hidden bool
}

// Table is a headless grid. It is not safe for concurrent use; the owning
// page serialises access.
type Table struct {
	columns      []Column
	rows         []*row
	nextKey      int64
	selected     int64
	sortColumn   int
	sortOrder    SortOrder
	sortEnabled  bool
	readOnly     bool
	singleSelect bool
	onActivate   func(row int)
	fold         cases.Caser
}

// New returns an empty table.
func New() *Table {
	return &Table{
		selected:   -1,
		sortColumn: NoSort,
		fold:       cases.Fold(),
	}
}

// ConfigureColumns sets the column labels. The column labelled stretchColumn
// fills the remaining width; all others size to their contents.
func (t *Table) ConfigureColumns(headers []string, stretchColumn string) {
	t.columns = make([]Column, len(headers))
	for i, label := range headers {
		col := Column{Label: label, Mode: ResizeToContents, Width: contentWidth}
		if stretchColumn != "" && label == stretchColumn {
			col.Mode = Stretch
			col.Width = stretchWidth
		}
		t.columns[i] = col
	}
}

// WireRowInteraction hides the id column, makes cells read-only, restricts
// selection to a single full row and enables click-to-sort with a neutral
// indicator. onActivate runs when a row is double-clicked.
func (t *Table) WireRowInteraction(onActivate func(row int)) {
	if len(t.columns) > 0 {
		t.columns[0].Hidden = true
	}
	t.readOnly = true
	t.singleSelect = true
	t.sortEnabled = true
	t.sortColumn = NoSort
	t.sortOrder = Ascending
	t.onActivate = onActivate
}

// Columns returns a copy of the column configuration.
func (t *Table) Columns() []Column {
	return slices.Clone(t.columns)
}

// ReadOnly reports whether cells reject in-place edits.
func (t *Table) ReadOnly() bool { return t.readOnly }

// SingleSelection reports whether at most one row can be selected.
func (t *Table) SingleSelection() bool { return t.singleSelect }

// SortIndicator returns the column and order of the current sort.
func (t *Table) SortIndicator() (int, SortOrder) {
	return t.sortColumn, t.sortOrder
}

// Render replaces every displayed row, one per record, cells taken
// positionally from values.
func (t *Table) Render(rows [][]any) {
	t.rows = make([]*row, 0, len(rows))
	t.selected = -1
	for _, values := range rows {
		t.rows = append(t.rows, t.newRow(values))
	}
	if t.sortEnabled && t.sortColumn != NoSort {
		t.sort(t.sortColumn, t.sortOrder)
	}
}

// AppendRow adds a row at the bottom and returns its index.
func (t *Table) AppendRow(values []any) int {
	t.rows = append(t.rows, t.newRow(values))
	return len(t.rows) - 1
}

// ReplaceRow overwrites the cells of row i in place. Visibility and
// selection are kept.
func (t *Table) ReplaceRow(i int, values []any) error {
	r, err := t.row(i)
	if err != nil {
		return err
	}
	r.cells = t.cells(values)
	return nil
}

// RemoveRow drops row i from the view.
func (t *Table) RemoveRow(i int) error {
	r, err := t.row(i)
	if err != nil {
		return err
	}
	if r.key == t.selected {
		t.selected = -1
	}
	t.rows = slices.Delete(t.rows, i, i+1)
	return nil
}

// SortBy sorts the rows on column col, as a header click does.
func (t *Table) SortBy(col int, order SortOrder) error {
	if col < 0 || col >= len(t.columns) {
		return fmt.Errorf("tableview: column %d out of range", col)
	}
	t.sortEnabled = true
	t.sortColumn = col
	t.sortOrder = order
	t.sort(col, order)
	return nil
}

// ResetOrder sorts ascending by the id column, restoring the load order.
func (t *Table) ResetOrder() {
	t.sortEnabled = true
	t.sortColumn = 0
	t.sortOrder = Ascending
	t.sort(0, Ascending)
}

// Filter hides every row whose cell in col does not contain text, ignoring
// case. Empty text shows every row again.
func (t *Table) Filter(col int, text string) {
	needle := t.fold.String(strings.TrimSpace(text))
	for _, r := range t.rows {
		if needle == "" {
			r.hidden = false
			continue
		}
		if col < 0 || col >= len(r.cells) || !r.cells[col].Valid {
			r.hidden = true
			continue
		}
		r.hidden = !strings.Contains(t.fold.String(r.cells[col].Text), needle)
	}
}

// RowToRecord reads row i back into a record keyed by columns. A missing or
// null cell yields nil.
func (t *Table) RowToRecord(i int, columns []string) (entity.Record, error) {
	r, err := t.row(i)
	if err != nil {
		return nil, err
	}
	rec := make(entity.Record, len(columns))
	for idx, col := range columns {
		if idx < len(r.cells) && r.cells[idx].Valid {
			rec[col] = r.cells[idx].Text
		} else {
			rec[col] = nil
		}
	}
	return rec, nil
}

// Select makes row i the current row; -1 clears the selection.
func (t *Table) Select(i int) error {
	if i == -1 {
		t.selected = -1
		return nil
	}
	r, err := t.row(i)
	if err != nil {
		return err
	}
	t.selected = r.key
	return nil
}

// CurrentRow returns the index of the selected row, or -1.
func (t *Table) CurrentRow() int {
	if t.selected < 0 {
		return -1
	}
	for i, r := range t.rows {
		if r.key == t.selected {
			return i
		}
	}
	return -1
}

// Activate simulates a double-click on row i.
func (t *Table) Activate(i int) error {
	if _, err := t.row(i); err != nil {
		return err
	}
	if err := t.Select(i); err != nil {
		return err
	}
	if t.onActivate != nil {
		t.onActivate(i)
	}
	return nil
}

// RowCount returns the number of rows, hidden ones included.
func (t *Table) RowCount() int { return len(t.rows) }

// Hidden reports whether row i is filtered out.
func (t *Table) Hidden(i int) bool {
	r, err := t.row(i)
	return err == nil && r.hidden
}

// Cell returns the cell at row i, column col.
func (t *Table) Cell(i, col int) (Cell, bool) {
	r, err := t.row(i)
	if err != nil || col < 0 || col >= len(r.cells) {
		return Cell{}, false
	}
	return r.cells[col], true
}

// Row returns the cell texts of row i.
func (t *Table) Row(i int) []string {
	r, err := t.row(i)
	if err != nil {
		return nil
	}
	out := make([]string, len(r.cells))
	for c, cell := range r.cells {
		out[c] = cell.Text
	}
	return out
}

// VisibleRows returns the indexes of rows not hidden by the filter.
func (t *Table) VisibleRows() []int {
	out := make([]int, 0, len(t.rows))
	for i, r := range t.rows {
		if !r.hidden {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) row(i int) (*row, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, fmt.Errorf("tableview: row %d out of range", i)
	}
	return t.rows[i], nil
}

func (t *Table) newRow(values []any) *row {
	t.nextKey++
	return &row{key: t.nextKey, cells: t.cells(values)}
}

func (t *Table) cells(values []any) []Cell {
	out := make([]Cell, len(values))
	for i, v := range values {
		out[i] = FormatCell(v)
	}
	return out
}
