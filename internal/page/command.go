package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/notice"
	"github.com/onexcrm/onexcrm/internal/tableview"
)

// Action names a user action.
type Action string

const (
	ActionRefresh      Action = "refresh"
	ActionAdd          Action = "add"
	ActionEdit         Action = "edit"
	ActionActivate     Action = "activate"
	ActionRemove       Action = "remove"
	ActionFilterColumn Action = "filter_column"
	ActionFilterText   Action = "filter_text"
	ActionFilterDate   Action = "filter_date"
	ActionSort         Action = "sort"
	ActionResetOrder   Action = "reset_order"
	ActionSelect       Action = "select"
)

// Command is one user action with its arguments. Row -1 means the selected
// row.
type Command struct {
	Action Action              `json:"action"`
	Row    int                 `json:"row"`
	Column int                 `json:"column"`
	Order  tableview.SortOrder `json:"order"`
	Header string              `json:"header,omitempty"`
	Text   string              `json:"text,omitempty"`
	Date   time.Time           `json:"date,omitzero"`
}

// EffectKind classifies a side effect of a command.
type EffectKind string

const (
	EffectLoad       EffectKind = "load"
	EffectNameCheck  EffectKind = "name_check"
	EffectInsert     EffectKind = "insert"
	EffectUpdate     EffectKind = "update"
	EffectSoftDelete EffectKind = "soft_delete"
	EffectRender     EffectKind = "render"
	EffectAppendRow  EffectKind = "append_row"
	EffectReplaceRow EffectKind = "replace_row"
	EffectRemoveRow  EffectKind = "remove_row"
	EffectSort       EffectKind = "sort"
	EffectFilter     EffectKind = "filter"
	EffectSelect     EffectKind = "select"
	EffectNotice     EffectKind = "notice"
	EffectIndicator  EffectKind = "indicator"
)

// Effect is one repository call, view update or notice.
type Effect struct {
	Kind   EffectKind     `json:"kind"`
	Row    int            `json:"row,omitempty"`
	Notice *notice.Notice `json:"notice,omitempty"`
	Detail string         `json:"detail,omitempty"`
}

// Outcome is what a command did.
type Outcome struct {
	Action  Action   `json:"action"`
	State   State    `json:"state"`
	Effects []Effect `json:"effects"`
	// Cancelled is set when the user backed out of a form or confirmation.
	Cancelled bool `json:"cancelled,omitempty"`
	// Err is the reported failure of the action, if any. Failures are
	// already shown to the user as a notice.
	Err error `json:"-"`
}

// Notices returns the notices the command produced, in order.
func (o Outcome) Notices() []notice.Notice {
	var out []notice.Notice
	for _, e := range o.Effects {
		if e.Notice != nil {
			out = append(out, *e.Notice)
		}
	}
	return out
}

// Has reports whether the outcome includes an effect of kind.
func (o Outcome) Has(kind EffectKind) bool {
	for _, e := range o.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func (o *Outcome) add(kind EffectKind, row int, detail string) {
	o.Effects = append(o.Effects, Effect{Kind: kind, Row: row, Detail: detail})
}

type handler func(p *Page, ctx context.Context, cmd Command, out *Outcome) error

func dispatchTable() map[Action]handler {
	return map[Action]handler{
		ActionRefresh:      (*Page).refresh,
		ActionAdd:          (*Page).add,
		ActionEdit:         (*Page).edit,
		ActionActivate:     (*Page).activate,
		ActionRemove:       (*Page).remove,
		ActionFilterColumn: (*Page).switchFilterColumn,
		ActionFilterText:   (*Page).filterByText,
		ActionFilterDate:   (*Page).filterByDate,
		ActionSort:         (*Page).sort,
		ActionResetOrder:   (*Page).resetOrder,
		ActionSelect:       (*Page).selectRow,
	}
}

// Dispatch runs cmd. The returned error is non-nil only for commands the
// page cannot run (ErrInvalidCommand); failures of a valid action are
// reported to the user and recorded in Outcome.Err.
func (p *Page) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	out := Outcome{Action: cmd.Action}
	h, ok := p.handlers[cmd.Action]
	if !ok {
		return out, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, cmd.Action)
	}
	if p.state != StateIdle {
		return out, fmt.Errorf("%w: page is %s", ErrInvalidCommand, p.state)
	}

	p.run = &session{page: p, out: &out}
	err := h(p, ctx, cmd, &out)
	p.run = nil
	p.state = StateIdle
	out.State = p.state

	if err != nil && !isInvalid(err) {
		out.Err = err
		p.log.WarnContext(ctx, "page action failed",
			slog.String("action", string(cmd.Action)), slog.Any("error", err))
		return out, nil
	}
	return out, err
}

// session records the effects of one dispatch while forwarding to the real
// repository and UI.
type session struct {
	page *Page
	out  *Outcome
}

func (s *session) Notify(n notice.Notice) {
	s.out.Effects = append(s.out.Effects, Effect{Kind: EffectNotice, Notice: &n})
	s.page.ui.Notify(n)
}

func (s *session) Confirm(title, question string) bool {
	return s.page.ui.Confirm(title, question)
}

func (s *session) Load(ctx context.Context, columns []string, orderBy string) ([]entity.Record, error) {
	s.out.add(EffectLoad, 0, "")
	return s.page.repo.Load(ctx, columns, orderBy)
}

func (s *session) Insert(ctx context.Context, data entity.Record) (entity.Record, error) {
	s.out.add(EffectInsert, 0, "")
	return s.page.repo.Insert(ctx, data)
}

func (s *session) Update(ctx context.Context, id int64, data entity.Record) (entity.Record, error) {
	s.out.add(EffectUpdate, 0, fmt.Sprint(id))
	return s.page.repo.Update(ctx, id, data)
}

func (s *session) SoftDelete(ctx context.Context, id int64) error {
	s.out.add(EffectSoftDelete, 0, fmt.Sprint(id))
	return s.page.repo.SoftDelete(ctx, id)
}

func (s *session) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	s.out.add(EffectNameCheck, 0, name)
	return s.page.repo.NameExists(ctx, name, excludeID)
}

func isInvalid(err error) bool {
	return errors.Is(err, ErrInvalidCommand)
}
