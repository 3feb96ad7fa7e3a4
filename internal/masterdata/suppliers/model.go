package suppliers

import (
	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
	"github.com/onexcrm/onexcrm/internal/masterdata/shared"
)

const (
	ColumnID            = "supplier_id"
	ColumnName          = "supplier_name"
	ColumnContact       = "supplier_contact"
	ColumnType          = "supplier_type"
	ColumnStatus        = "supplier_status"
	ColumnDescription   = "description"
	ColumnContractStart = "contract_start"
	ColumnContractEnd   = "contract_end"
)

// ColumnOrder matches the grid columns.
var ColumnOrder = []string{
	ColumnID,
	ColumnName,
	ColumnContact,
	ColumnType,
	ColumnStatus,
	ColumnDescription,
	ColumnContractStart,
	ColumnContractEnd,
}

var Headers = []string{
	"Supplier ID",
	"Supplier Name",
	"Contact",
	"Type",
	"Status",
	"Description",
	"Contract Start",
	"Contract End",
}

// Types are the selectable supplier types.
var Types = []string{"Direct", "Aggregator", "White Label", "Payment Gateway", "Other"}

const (
	typeOptions   = "supplier_type"
	statusOptions = "supplier_status"
)

func init() {
	form.RegisterOptions(typeOptions, Types)
	form.RegisterOptions(statusOptions, shared.StatusOptions)
}

// Schema returns the supplier table configuration.
func Schema() entity.Schema {
	return entity.Schema{
		Table:         "supplier",
		IDColumn:      ColumnID,
		NameColumn:    ColumnName,
		Columns:       append([]string(nil), ColumnOrder...),
		Headers:       append([]string(nil), Headers...),
		DisplayName:   "Supplier",
		StretchColumn: shared.DescriptionHeader,
	}
}
