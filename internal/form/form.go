// Package form holds the add/edit form contract shared by every entity, the
// duplicate-name guard and the submission flow that ties a form to the
// repository.
package form

import (
	"fmt"
	"slices"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/tableview"
)

// Mode tells a form whether it creates or edits a record.
type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "add"
}

// Marker flags an input as offending.
type Marker interface {
	SetMarked(field string, marked bool)
}

// EntityForm is the capability the list page needs from a per-entity form.
type EntityForm interface {
	Marker
	Mode() Mode
	// Populate seeds the inputs from a record read off the grid.
	Populate(rec entity.Record)
	// Set changes one input as the user would.
	Set(field, value string) error
	Values() map[string]string
	Marked(field string) bool
	// NameField returns the unique column and its current input, or "" when
	// the entity has no uniqueness constraint.
	NameField() (column, value string)
	// Confirm validates the inputs and returns the data to persist, without
	// the id column. Bad input yields a *ValidationError.
	Confirm() (entity.Record, error)
}

// Factory builds an empty form in the given mode.
type Factory func(mode Mode) EntityForm

// Base stores input values for a fixed set of fields. Entity forms embed it.
type Base struct {
	mode   Mode
	fields []string
	values map[string]string
	marked map[string]bool
}

// NewBase returns a Base accepting fields.
func NewBase(mode Mode, fields ...string) *Base {
	return &Base{
		mode:   mode,
		fields: fields,
		values: make(map[string]string, len(fields)),
		marked: make(map[string]bool),
	}
}

// Mode returns the form mode.
func (b *Base) Mode() Mode { return b.mode }

// Set stores value for field and clears any mark on it.
func (b *Base) Set(field, value string) error {
	if !slices.Contains(b.fields, field) {
		return fmt.Errorf("form: unknown field %q", field)
	}
	b.values[field] = value
	delete(b.marked, field)
	return nil
}

// Get returns the current input of field.
func (b *Base) Get(field string) string {
	return b.values[field]
}

// Values returns a copy of every input.
func (b *Base) Values() map[string]string {
	out := make(map[string]string, len(b.fields))
	for _, f := range b.fields {
		out[f] = b.values[f]
	}
	return out
}

// Marked reports whether field is flagged.
func (b *Base) Marked(field string) bool { return b.marked[field] }

// SetMarked flags or clears field.
func (b *Base) SetMarked(field string, marked bool) {
	if marked {
		b.marked[field] = true
		return
	}
	delete(b.marked, field)
}

// Populate copies the record values of the known fields. Null values become
// empty inputs.
func (b *Base) Populate(rec entity.Record) {
	for _, f := range b.fields {
		v, ok := rec[f]
		if !ok || v == nil {
			b.values[f] = ""
			continue
		}
		b.values[f] = tableview.FormatCell(v).Text
	}
}
