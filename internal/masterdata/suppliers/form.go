package suppliers

import (
	"strings"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
)

// Form is the supplier add/edit form.
type Form struct {
	*form.Base
}

// NewForm returns an empty supplier form. Type and status start on their
// first option, as the drop-downs do.
func NewForm(mode form.Mode) form.EntityForm {
	f := &Form{Base: form.NewBase(mode, ColumnOrder[1:]...)}
	_ = f.Set(ColumnType, Types[0])
	_ = f.Set(ColumnStatus, form.Options(statusOptions)[0])
	return f
}

// NameField implements form.EntityForm.
func (f *Form) NameField() (string, string) {
	return ColumnName, strings.TrimSpace(f.Get(ColumnName))
}

// Confirm implements form.EntityForm.
func (f *Form) Confirm() (entity.Record, error) {
	in, err := f.validate()
	if err != nil {
		return nil, err
	}
	rec := entity.Record{
		ColumnName:        in.Name,
		ColumnContact:     in.Contact,
		ColumnType:        in.Type,
		ColumnStatus:      in.Status,
		ColumnDescription: in.Description,
	}
	for col, raw := range map[string]string{ColumnContractStart: in.ContractStart, ColumnContractEnd: in.ContractEnd} {
		day, _ := parseDate(raw)
		if day == nil {
			rec[col] = nil
		} else {
			rec[col] = *day
		}
	}
	return rec, nil
}
