package clients

import (
	"strings"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
)

type input struct {
	Name        string `col:"client_name" label:"Client Name" validate:"required,max=100,entityname"`
	Contact     string `col:"client_contact" label:"Client Contact" validate:"omitempty,max=50,contact"`
	Type        string `col:"client_type" label:"Client Type" validate:"option=client_type"`
	Status      string `col:"status" label:"Status" validate:"option=client_status"`
	Description string `col:"description" label:"Description" validate:"max=500"`
}

// Form is the client add/edit form.
type Form struct {
	*form.Base
}

// NewForm returns an empty client form.
func NewForm(mode form.Mode) form.EntityForm {
	f := &Form{Base: form.NewBase(mode, ColumnOrder[1:]...)}
	_ = f.Set(ColumnType, Types[0])
	_ = f.Set(ColumnStatus, form.Options(statusOptions)[0])
	return f
}

func (f *Form) NameField() (string, string) {
	return ColumnName, strings.TrimSpace(f.Get(ColumnName))
}

func (f *Form) Confirm() (entity.Record, error) {
	in := input{
		Name:        strings.TrimSpace(f.Get(ColumnName)),
		Contact:     strings.TrimSpace(f.Get(ColumnContact)),
		Type:        f.Get(ColumnType),
		Status:      f.Get(ColumnStatus),
		Description: f.Get(ColumnDescription),
	}
	if err := form.Validate(in); err != nil {
		return nil, err
	}
	return entity.Record{
		ColumnName:        in.Name,
		ColumnContact:     in.Contact,
		ColumnType:        in.Type,
		ColumnStatus:      in.Status,
		ColumnDescription: in.Description,
	}, nil
}
