package shell

import (
	"github.com/onexcrm/onexcrm/internal/notice"
	"github.com/onexcrm/onexcrm/internal/page"
	"github.com/onexcrm/onexcrm/internal/tableview"
)

type rowView struct {
	Index int      `json:"index"`
	Cells []string `json:"cells"`
}

type sortView struct {
	Column int    `json:"column"`
	Order  string `json:"order,omitempty"`
}

type pageView struct {
	Entity        string             `json:"entity"`
	Title         string             `json:"title"`
	Columns       []tableview.Column `json:"columns"`
	Rows          []rowView          `json:"rows"`
	Selected      int                `json:"selected"`
	Sort          sortView           `json:"sort"`
	Indicator     page.Indicator     `json:"indicator"`
	Filter        page.Filter        `json:"filter"`
	FilterChoices []string           `json:"filter_choices"`
	Notices       []notice.Notice    `json:"notices"`
	Outcome       *page.Outcome      `json:"outcome,omitempty"`
	Reopened      *formState         `json:"reopened,omitempty"`
	Token         string             `json:"token,omitempty"`
	Question      string             `json:"question,omitempty"`
}

type ratesView struct {
	Title     string      `json:"title"`
	Headers   []string    `json:"headers"`
	Rows      [][2]string `json:"rows"`
	Available bool        `json:"available"`
}

// newPageView snapshots the window. The caller holds the window lock.
func newPageView(w *Window, res result) pageView {
	p := w.page
	table := p.Table()
	view := pageView{
		Entity:        w.slug,
		Title:         p.Schema().DisplayName + " List",
		Columns:       table.Columns(),
		Selected:      table.CurrentRow(),
		Indicator:     p.Indicator(),
		Filter:        p.ActiveFilter(),
		FilterChoices: p.FilterChoices(),
		Notices:       res.notices,
		Reopened:      res.reopened,
		Token:         res.token,
		Question:      res.question,
	}
	if view.Notices == nil {
		view.Notices = []notice.Notice{}
	}
	for _, i := range table.VisibleRows() {
		view.Rows = append(view.Rows, rowView{Index: i, Cells: table.Row(i)})
	}
	if view.Rows == nil {
		view.Rows = []rowView{}
	}
	col, order := table.SortIndicator()
	view.Sort = sortView{Column: col}
	if col != tableview.NoSort {
		view.Sort.Order = "asc"
		if order == tableview.Descending {
			view.Sort.Order = "desc"
		}
	}
	if res.outcome.Action != "" {
		out := res.outcome
		view.Outcome = &out
	}
	return view
}
