package page

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
	"github.com/onexcrm/onexcrm/internal/notice"
	"github.com/onexcrm/onexcrm/internal/tableview"
)

func (p *Page) refresh(ctx context.Context, _ Command, out *Outcome) error {
	p.state = StateLoading
	records, err := p.run.Load(ctx, p.schema.Columns, p.schema.IDColumn)
	if err != nil {
		p.setIndicator(IndicatorFailed)
		out.add(EffectIndicator, 0, string(IndicatorFailed))
		p.run.Notify(notice.DBError(err, "fetch", "data"))
		return err
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = rec.Values(p.schema.Columns)
	}
	p.table.Render(rows)
	out.add(EffectRender, len(rows), "")
	p.applyFilter()
	p.setIndicator(IndicatorRefreshed)
	out.add(EffectIndicator, 0, string(IndicatorRefreshed))
	p.log.DebugContext(ctx, "page loaded", slog.Int("rows", len(rows)))
	return nil
}

func (p *Page) add(ctx context.Context, _ Command, out *Outcome) error {
	p.state = StateAdding
	rec, err := p.runForm(ctx, p.newForm(form.ModeAdd), 0, out)
	if err != nil || rec == nil {
		return err
	}
	row := p.table.AppendRow(rec.Values(p.schema.Columns))
	p.applyFilter()
	out.add(EffectAppendRow, row, fmt.Sprint(rec[p.schema.IDColumn]))
	return nil
}

func (p *Page) edit(ctx context.Context, cmd Command, out *Outcome) error {
	row, err := p.targetRow(cmd.Row, "edit")
	if err != nil || row < 0 {
		return err
	}
	return p.editRow(ctx, row, out)
}

// activate is a double-click on a row, which opens it for editing.
func (p *Page) activate(ctx context.Context, cmd Command, out *Outcome) error {
	p.activated = -1
	if err := p.table.Activate(cmd.Row); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	out.add(EffectSelect, cmd.Row, "")
	if p.activated < 0 {
		return nil
	}
	row := p.activated
	p.activated = -1
	return p.editRow(ctx, row, out)
}

func (p *Page) editRow(ctx context.Context, row int, out *Outcome) error {
	p.state = StateEditing
	current, err := p.table.RowToRecord(row, p.schema.Columns)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	id, err := entity.ParseID(current[p.schema.IDColumn])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	f := p.newForm(form.ModeEdit)
	f.Populate(current)
	rec, err := p.runForm(ctx, f, id, out)
	if err != nil || rec == nil {
		return err
	}
	if err := p.table.ReplaceRow(row, rec.Values(p.schema.Columns)); err != nil {
		return err
	}
	p.applyFilter()
	out.add(EffectReplaceRow, row, fmt.Sprint(id))
	return nil
}

// runForm shows f until it is saved, cancelled or aborted. A nil record with
// a nil error means nothing was saved and nothing went wrong.
func (p *Page) runForm(ctx context.Context, f form.EntityForm, id int64, out *Outcome) (entity.Record, error) {
	d := &form.Dialog{Form: f, Store: p.run, Notifier: p.run, Label: p.label(), ID: id}
	for {
		if !p.ui.FillForm(f) {
			out.Cancelled = true
			return nil, nil
		}
		rec, err := d.Submit(ctx)
		switch {
		case err == nil:
			return rec, nil
		case form.Reopen(err):
			continue
		default:
			return nil, err
		}
	}
}

func (p *Page) remove(ctx context.Context, cmd Command, out *Outcome) error {
	row, err := p.targetRow(cmd.Row, "remove")
	if err != nil || row < 0 {
		return err
	}
	p.state = StateRemoving

	idCell, _ := p.table.Cell(row, 0)
	nameCell, _ := p.table.Cell(row, 1)
	id, err := entity.ParseID(idCell.Text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	question := fmt.Sprintf("Are you sure you want to delete %s: %s?", strings.ToLower(p.label()), nameCell.Text)
	if !p.run.Confirm("Confirm Delete", question) {
		out.Cancelled = true
		return nil
	}

	if err := p.run.SoftDelete(ctx, id); err != nil {
		p.run.Notify(notice.DBError(err, "delete", p.label()))
		return err
	}
	if err := p.table.RemoveRow(row); err != nil {
		return err
	}
	out.add(EffectRemoveRow, row, fmt.Sprint(id))
	p.run.Notify(notice.Notice{
		Level:   notice.Info,
		Title:   "Deleted",
		Message: fmt.Sprintf("❌ %s %q removed", p.label(), nameCell.Text),
	})
	return nil
}

// targetRow resolves row -1 to the selection. A missing selection is
// reported to the user and yields -1 with no error.
func (p *Page) targetRow(row int, verb string) (int, error) {
	if row < 0 {
		row = p.table.CurrentRow()
	}
	if row < 0 {
		label := p.label()
		p.run.Notify(notice.Notice{
			Level:   notice.Warning,
			Title:   strings.ToUpper(verb[:1]) + verb[1:] + " " + label,
			Message: fmt.Sprintf("⚠️ Please select a %s to %s", strings.ToLower(label), verb),
		})
		return -1, nil
	}
	if row >= p.table.RowCount() {
		return -1, fmt.Errorf("%w: row %d out of range", ErrInvalidCommand, row)
	}
	return row, nil
}

func (p *Page) switchFilterColumn(_ context.Context, cmd Command, out *Outcome) error {
	p.state = StateFiltering
	col := p.schema.ColumnIndex(headerColumn(p.schema, cmd.Header))
	if col < 1 {
		return fmt.Errorf("%w: no filter column %q", ErrInvalidCommand, cmd.Header)
	}
	p.filterColumn = col
	if IsDateHeader(cmd.Header) {
		p.dateMode = true
		p.filterDate = today(p.clock())
	} else {
		p.dateMode = false
		p.filterText = ""
	}
	p.applyFilter()
	out.add(EffectFilter, col, cmd.Header)
	return nil
}

func (p *Page) filterByText(_ context.Context, cmd Command, out *Outcome) error {
	if p.dateMode {
		return fmt.Errorf("%w: %s is filtered by date", ErrInvalidCommand, p.schema.Headers[p.filterColumn])
	}
	p.state = StateFiltering
	p.filterText = cmd.Text
	p.applyFilter()
	out.add(EffectFilter, p.filterColumn, cmd.Text)
	return nil
}

func (p *Page) filterByDate(_ context.Context, cmd Command, out *Outcome) error {
	if !p.dateMode {
		return fmt.Errorf("%w: %s is filtered by text", ErrInvalidCommand, p.schema.Headers[p.filterColumn])
	}
	p.state = StateFiltering
	p.filterDate = today(cmd.Date)
	p.applyFilter()
	out.add(EffectFilter, p.filterColumn, p.filterDate.Format(tableview.DateLayout))
	return nil
}

func (p *Page) sort(_ context.Context, cmd Command, out *Outcome) error {
	if err := p.table.SortBy(cmd.Column, cmd.Order); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	out.add(EffectSort, cmd.Column, "")
	return nil
}

func (p *Page) resetOrder(_ context.Context, _ Command, out *Outcome) error {
	p.table.ResetOrder()
	out.add(EffectSort, 0, "reset")
	return nil
}

func (p *Page) selectRow(_ context.Context, cmd Command, out *Outcome) error {
	if err := p.table.Select(cmd.Row); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	out.add(EffectSelect, cmd.Row, "")
	return nil
}

func headerColumn(s entity.Schema, header string) string {
	for i, h := range s.Headers {
		if h == header {
			return s.Columns[i]
		}
	}
	return ""
}

func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
