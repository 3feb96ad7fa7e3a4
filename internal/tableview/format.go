package tableview

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const (
	// DateLayout is how date cells are displayed and how the date filter
	// formats the picked day, so the two always agree.
	DateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// FormatCell stringifies one value for display. nil becomes a null cell.
func FormatCell(v any) Cell {
	switch val := v.(type) {
	case nil:
		return Cell{}
	case string:
		return Cell{Text: val, Valid: true}
	case *string:
		if val == nil {
			return Cell{}
		}
		return Cell{Text: *val, Valid: true}
	case time.Time:
		if isDate(val) {
			return Cell{Text: val.Format(DateLayout), Valid: true}
		}
		return Cell{Text: val.Format(timestampLayout), Valid: true}
	case *time.Time:
		if val == nil {
			return Cell{}
		}
		return FormatCell(*val)
	case float32:
		return Cell{Text: fmt.Sprintf("%.4f", val), Valid: true}
	case float64:
		return Cell{Text: fmt.Sprintf("%.4f", val), Valid: true}
	case fmt.Stringer:
		return Cell{Text: val.String(), Valid: true}
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return Cell{Text: err.Error(), Valid: true}
		}
		return FormatCell(inner)
	default:
		return Cell{Text: fmt.Sprint(val), Valid: true}
	}
}

func isDate(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
