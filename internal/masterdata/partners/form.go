package partners

import (
	"strings"

	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
)

type input struct {
	Name        string `col:"partner_name" label:"Partner Name" validate:"required,max=100,entityname"`
	Contact     string `col:"partner_contact" label:"Partner Contact" validate:"omitempty,max=50,contact"`
	Description string `col:"description" label:"Description" validate:"max=500"`
}

type Form struct {
	*form.Base
}

func NewForm(mode form.Mode) form.EntityForm {
	return &Form{Base: form.NewBase(mode, ColumnOrder[1:]...)}
}

func (f *Form) NameField() (string, string) {
	return ColumnName, strings.TrimSpace(f.Get(ColumnName))
}

func (f *Form) Confirm() (entity.Record, error) {
	in := input{
		Name:        strings.TrimSpace(f.Get(ColumnName)),
		Contact:     strings.TrimSpace(f.Get(ColumnContact)),
		Description: f.Get(ColumnDescription),
	}
	if err := form.Validate(in); err != nil {
		return nil, err
	}
	return entity.Record{
		ColumnName:        in.Name,
		ColumnContact:     in.Contact,
		ColumnDescription: in.Description,
	}, nil
}
