package suppliers

import (
	"strings"
	"time"

	"github.com/onexcrm/onexcrm/internal/form"
	"github.com/onexcrm/onexcrm/internal/tableview"
)

type input struct {
	Name          string `col:"supplier_name" label:"Supplier Name" validate:"required,max=100,entityname"`
	Contact       string `col:"supplier_contact" label:"Supplier Contact" validate:"omitempty,max=50,contact"`
	Type          string `col:"supplier_type" label:"Supplier Type" validate:"option=supplier_type"`
	Status        string `col:"supplier_status" label:"Status" validate:"option=supplier_status"`
	Description   string `col:"description" label:"Description" validate:"max=500"`
	ContractStart string `col:"contract_start" label:"Start Date" validate:"omitempty,datetime=2006-01-02"`
	ContractEnd   string `col:"contract_end" label:"End Date" validate:"omitempty,datetime=2006-01-02"`
}

func (f *Form) validate() (input, error) {
	in := input{
		Name:          strings.TrimSpace(f.Get(ColumnName)),
		Contact:       strings.TrimSpace(f.Get(ColumnContact)),
		Type:          f.Get(ColumnType),
		Status:        f.Get(ColumnStatus),
		Description:   f.Get(ColumnDescription),
		ContractStart: strings.TrimSpace(f.Get(ColumnContractStart)),
		ContractEnd:   strings.TrimSpace(f.Get(ColumnContractEnd)),
	}
	if err := form.Validate(in); err != nil {
		return input{}, err
	}
	if in.ContractStart != "" && in.ContractEnd != "" {
		start, _ := parseDate(in.ContractStart)
		end, _ := parseDate(in.ContractEnd)
		if start.After(*end) {
			return input{}, form.Invalid(ColumnContractStart, "Start Date cannot be after End Date.")
		}
	}
	return in, nil
}

// parseDate reads an optional contract date; empty input is a null date.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(tableview.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
