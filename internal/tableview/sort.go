package tableview

import (
	"cmp"
	"slices"
	"strconv"
)

func (t *Table) sort(col int, order SortOrder) {
	slices.SortStableFunc(t.rows, func(a, b *row) int {
		c := compareCells(cellAt(a, col), cellAt(b, col))
		if order == Descending {
			return -c
		}
		return c
	})
}

func cellAt(r *row, col int) Cell {
	if col < len(r.cells) {
		return r.cells[col]
	}
	return Cell{}
}

// compareCells orders null cells first, integers numerically and everything
// else by text.
func compareCells(a, b Cell) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	ai, aErr := strconv.ParseInt(a.Text, 10, 64)
	bi, bErr := strconv.ParseInt(b.Text, 10, 64)
	if aErr == nil && bErr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a.Text, b.Text)
}
