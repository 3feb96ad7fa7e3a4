// Package shell is the window chrome of the CRM: it hosts one list page per
// entity and turns HTTP requests into page commands.
package shell

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/onexcrm/onexcrm/internal/form"
	"github.com/onexcrm/onexcrm/internal/masterdata/shared"
	"github.com/onexcrm/onexcrm/internal/notice"
	"github.com/onexcrm/onexcrm/internal/page"
)

const descriptionField = "description"

// bridge is the page.UI of a window. Its answers are set by the request
// currently holding the window lock.
type bridge struct {
	notices  []notice.Notice
	confirm  func(title, question string) bool
	values   map[string]string
	filled   bool
	reopened *formState
	setErr   error
	// token and question report a removal awaiting confirmation.
	token    string
	question string
}

// formState is what the user sees when a form is reopened after a refused
// save.
type formState struct {
	Mode   string            `json:"mode"`
	Values map[string]string `json:"values"`
	Marked []string          `json:"marked,omitempty"`
	// DescriptionLeft is the character counter under the description box.
	DescriptionLeft int `json:"description_left"`
}

func (b *bridge) reset() {
	*b = bridge{}
}

func (b *bridge) Notify(n notice.Notice) {
	b.notices = append(b.notices, n)
}

func (b *bridge) Confirm(title, question string) bool {
	if b.confirm == nil {
		return false
	}
	return b.confirm(title, question)
}

// FillForm applies the request's values once. A second call means the form
// was refused and reopened; the request cannot answer again, so it cancels.
func (b *bridge) FillForm(f form.EntityForm) bool {
	if b.filled {
		st := &formState{Mode: f.Mode().String(), Values: f.Values()}
		for field := range st.Values {
			if f.Marked(field) {
				st.Marked = append(st.Marked, field)
			}
		}
		sort.Strings(st.Marked)
		st.DescriptionLeft = form.Remaining(st.Values[descriptionField], shared.MaxDescriptionLength)
		b.reopened = st
		return false
	}
	if b.values == nil {
		return false
	}
	b.filled = true
	for field, value := range b.values {
		// The description box stops accepting input at its limit.
		if field == descriptionField {
			value = form.Clip(value, shared.MaxDescriptionLength)
		}
		if err := f.Set(field, value); err != nil {
			b.setErr = err
			return false
		}
	}
	return true
}

// pendingRemove is the first step of a confirmed removal.
type pendingRemove struct {
	token    string
	row      int
	id       string
	question string
}

// Window is one entity page with its lock.
type Window struct {
	slug    string
	mu      sync.Mutex
	page    *page.Page
	ui      *bridge
	loaded  bool
	pending *pendingRemove
}

func newWindow(slug string, cfg page.Config) (*Window, error) {
	ui := &bridge{}
	cfg.UI = ui
	p, err := page.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("shell: window %s: %w", slug, err)
	}
	return &Window{slug: slug, page: p, ui: ui}, nil
}

// result is one dispatch as seen by the HTTP layer.
type result struct {
	outcome  page.Outcome
	notices  []notice.Notice
	reopened *formState
	token    string
	question string
	view     pageView
}

// do runs fn with the window locked and the bridge reset; the page is
// loaded first if no request has loaded it yet. The view is taken before the
// lock is released so it shows the page exactly as fn left it.
func (w *Window) do(ctx context.Context, fn func() (page.Outcome, error)) (result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ui.reset()
	if !w.loaded {
		if _, err := w.page.Dispatch(ctx, page.Command{Action: page.ActionRefresh}); err != nil {
			return result{}, err
		}
		w.loaded = true
	}
	out, err := fn()
	res := result{
		outcome:  out,
		notices:  w.ui.notices,
		reopened: w.ui.reopened,
		token:    w.ui.token,
		question: w.ui.question,
	}
	if err == nil && w.ui.setErr != nil {
		err = fmt.Errorf("%w: %w", page.ErrInvalidCommand, w.ui.setErr)
	}
	if err == nil {
		res.view = newPageView(w, res)
	}
	return res, err
}

// askRemove runs the remove command without confirming and keeps a token
// for the confirmation step.
func (w *Window) askRemove(ctx context.Context, row int) (result, error) {
	return w.do(ctx, func() (page.Outcome, error) {
		var question string
		w.pending = nil
		w.ui.confirm = func(_, q string) bool {
			question = q
			return false
		}
		if row >= 0 {
			if _, err := w.page.Dispatch(ctx, page.Command{Action: page.ActionSelect, Row: row}); err != nil {
				return page.Outcome{}, err
			}
		}
		out, err := w.page.Dispatch(ctx, page.Command{Action: page.ActionRemove, Row: row})
		if err != nil || question == "" {
			return out, err
		}
		target := w.page.Table().CurrentRow()
		id, _ := w.page.Table().Cell(target, 0)
		w.pending = &pendingRemove{token: uuid.NewString(), row: target, id: id.Text, question: question}
		w.ui.token, w.ui.question = w.pending.token, question
		return out, nil
	})
}

// confirmRemove answers a pending removal. The row must still hold the same
// record, otherwise the token is stale.
func (w *Window) confirmRemove(ctx context.Context, token string, yes bool) (result, error) {
	return w.do(ctx, func() (page.Outcome, error) {
		pending := w.pending
		if pending == nil || pending.token != token {
			return page.Outcome{}, errStaleToken
		}
		w.pending = nil
		if cell, ok := w.page.Table().Cell(pending.row, 0); !ok || cell.Text != pending.id {
			return page.Outcome{}, errStaleToken
		}
		w.ui.confirm = func(string, string) bool { return yes }
		return w.page.Dispatch(ctx, page.Command{Action: page.ActionRemove, Row: pending.row})
	})
}
