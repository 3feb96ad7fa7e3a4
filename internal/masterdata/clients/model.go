package clients

import (
	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
	"github.com/onexcrm/onexcrm/internal/masterdata/shared"
)

const (
	ColumnID          = "client_id"
	ColumnName        = "client_name"
	ColumnContact     = "client_contact"
	ColumnType        = "client_type"
	ColumnStatus      = "status"
	ColumnDescription = "description"
)

// ColumnOrder matches the grid columns.
var ColumnOrder = []string{
	ColumnID,
	ColumnName,
	ColumnContact,
	ColumnType,
	ColumnStatus,
	ColumnDescription,
}

var Headers = []string{
	"Client ID",
	"Client Name",
	"Contact",
	"Type",
	"Status",
	"Description",
}

// Types are the selectable client types.
var Types = []string{"VIP", "Client"}

const (
	typeOptions   = "client_type"
	statusOptions = "client_status"
)

func init() {
	form.RegisterOptions(typeOptions, Types)
	form.RegisterOptions(statusOptions, shared.StatusOptions)
}

// Schema returns the client table configuration.
func Schema() entity.Schema {
	return entity.Schema{
		Table:         "client",
		IDColumn:      ColumnID,
		NameColumn:    ColumnName,
		Columns:       append([]string(nil), ColumnOrder...),
		Headers:       append([]string(nil), Headers...),
		DisplayName:   "Client",
		StretchColumn: shared.DescriptionHeader,
	}
}

// NewRepository returns the generic repository bound to the client table.
func NewRepository(db entity.DB, devMode bool, recorder entity.Recorder) (*entity.Repository, error) {
	schema := Schema()
	if devMode {
		schema = schema.ForDevMode()
	}
	return entity.NewRepository(db, schema, recorder)
}
