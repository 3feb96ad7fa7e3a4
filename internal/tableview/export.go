package tableview

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes the visible rows and columns as a single-sheet workbook.
func (t *Table) WriteXLSX(w io.Writer, sheet string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const defaultSheet = "Sheet1"
	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("tableview: name sheet: %w", err)
		}
	}

	var cols []int
	for i, c := range t.columns {
		if !c.Hidden {
			cols = append(cols, i)
		}
	}

	for x, col := range cols {
		cell, err := excelize.CoordinatesToCellName(x+1, 1)
		if err != nil {
			return fmt.Errorf("tableview: header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, t.columns[col].Label); err != nil {
			return fmt.Errorf("tableview: write header: %w", err)
		}
	}

	y := 2
	for _, r := range t.rows {
		if r.hidden {
			continue
		}
		for x, col := range cols {
			c := cellAt(r, col)
			if !c.Valid {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(x+1, y)
			if err != nil {
				return fmt.Errorf("tableview: data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, c.Text); err != nil {
				return fmt.Errorf("tableview: write cell: %w", err)
			}
		}
		y++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("tableview: write workbook: %w", err)
	}
	return nil
}
