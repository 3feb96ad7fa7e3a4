package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/notice"
)

var (
	// ErrDuplicateName means the guard refused the save; the form stays open.
	ErrDuplicateName = errors.New("form: duplicate name")
	// ErrAborted means the name could not be verified; the form closes.
	ErrAborted = errors.New("form: aborted")
)

// Store is the repository surface a form submission needs.
type Store interface {
	Insert(ctx context.Context, data entity.Record) (entity.Record, error)
	Update(ctx context.Context, id int64, data entity.Record) (entity.Record, error)
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
}

// Dialog runs one add or edit submission: validate, guard, write.
type Dialog struct {
	Form     EntityForm
	Store    Store
	Notifier notice.Notifier
	// Label is the entity display name, e.g. "Supplier".
	Label string
	// ID is the record being edited; ignored in add mode.
	ID int64
}

// Reopen reports whether err leaves the form open for another attempt.
func Reopen(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) || errors.Is(err, ErrDuplicateName)
}

// Submit persists the form. On success it returns the stored record, which is
// the single event the page reacts to.
func (d *Dialog) Submit(ctx context.Context) (entity.Record, error) {
	data, err := d.Form.Confirm()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			d.notify(notice.Notice{Level: notice.Warning, Title: "Validation Error", Message: verr.Message})
		}
		return nil, err
	}

	guard := Guard{Notifier: d.Notifier}
	column, name := d.Form.NameField()
	if column != "" {
		var exclude int64
		if d.Form.Mode() == ModeEdit {
			exclude = d.ID
		}
		exists, lookupErr := d.Store.NameExists(ctx, name, exclude)
		switch guard.Check(d.Form, d.Label, column, name, exists, lookupErr) {
		case VerdictDuplicate:
			return nil, ErrDuplicateName
		case VerdictAbort:
			return nil, fmt.Errorf("%w: %w", ErrAborted, lookupErr)
		}
	}

	var rec entity.Record
	if d.Form.Mode() == ModeEdit {
		rec, err = d.Store.Update(ctx, d.ID, data)
	} else {
		rec, err = d.Store.Insert(ctx, data)
	}
	if err != nil {
		if errors.Is(err, entity.ErrDuplicate) && column != "" {
			guard.Duplicate(d.Form, d.Label, column, name)
			return nil, fmt.Errorf("%w: %w", ErrDuplicateName, err)
		}
		verb := "add"
		if d.Form.Mode() == ModeEdit {
			verb = "edit"
		}
		d.notify(notice.DBError(err, verb, d.Label))
		return nil, err
	}

	if d.Form.Mode() == ModeEdit {
		d.notify(notice.Notice{Level: notice.Info, Title: "Edited", Message: "🔄 " + d.Label + " edited"})
	} else {
		d.notify(notice.Notice{Level: notice.Info, Title: "Success", Message: "✅ " + d.Label + " added"})
	}
	return rec, nil
}

func (d *Dialog) notify(n notice.Notice) {
	if d.Notifier != nil {
		d.Notifier.Notify(n)
	}
}
