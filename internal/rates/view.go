package rates

import (
	"slices"
	"strings"

	"github.com/onexcrm/onexcrm/internal/tableview"
)

// Preferred currencies are listed first, in this order.
var Preferred = []string{"MYR", "SGD", "USD", "EUR"}

// Headers of the rates table.
var Headers = []string{"Currency", "Rate"}

// Quote is one currency row.
type Quote struct {
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

// Order lists the preferred currencies present in r, then the rest by code.
func Order(r Rates) []Quote {
	out := make([]Quote, 0, len(r))
	for _, cur := range Preferred {
		if rate, ok := r[cur]; ok {
			out = append(out, Quote{Currency: cur, Rate: rate})
		}
	}
	rest := make([]string, 0, len(r))
	for cur := range r {
		if !slices.Contains(Preferred, cur) {
			rest = append(rest, cur)
		}
	}
	slices.Sort(rest)
	for _, cur := range rest {
		out = append(out, Quote{Currency: cur, Rate: r[cur]})
	}
	return out
}

// View is the rates window grid.
type View struct {
	table *tableview.Table
}

// NewView renders r.
func NewView(r Rates) *View {
	t := tableview.New()
	t.ConfigureColumns(Headers, "Rate")
	quotes := Order(r)
	rows := make([][]any, len(quotes))
	for i, q := range quotes {
		rows[i] = []any{q.Currency, q.Rate}
	}
	t.Render(rows)
	return &View{table: t}
}

// Search shows only currencies whose code contains text.
func (v *View) Search(text string) {
	v.table.Filter(0, strings.TrimSpace(text))
}

// Visible returns the shown rows as currency and formatted rate.
func (v *View) Visible() [][2]string {
	idx := v.table.VisibleRows()
	out := make([][2]string, 0, len(idx))
	for _, i := range idx {
		row := v.table.Row(i)
		out = append(out, [2]string{row[0], row[1]})
	}
	return out
}

// Table exposes the grid, e.g. for export.
func (v *View) Table() *tableview.Table { return v.table }
