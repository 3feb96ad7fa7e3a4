package partners

import (
	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/masterdata/shared"
)

const (
	ColumnID          = "partner_id"
	ColumnName        = "partner_name"
	ColumnContact     = "partner_contact"
	ColumnDescription = "description"
)

var ColumnOrder = []string{ColumnID, ColumnName, ColumnContact, ColumnDescription}

var Headers = []string{"Partner ID", "Partner Name", "Contact", "Description"}

// Schema returns the partner table configuration.
func Schema() entity.Schema {
	return entity.Schema{
		Table:         "partner",
		IDColumn:      ColumnID,
		NameColumn:    ColumnName,
		Columns:       append([]string(nil), ColumnOrder...),
		Headers:       append([]string(nil), Headers...),
		DisplayName:   "Partner",
		StretchColumn: shared.DescriptionHeader,
	}
}

// NewRepository returns the generic repository bound to the partner table.
func NewRepository(db entity.DB, devMode bool, recorder entity.Recorder) (*entity.Repository, error) {
	schema := Schema()
	if devMode {
		schema = schema.ForDevMode()
	}
	return entity.NewRepository(db, schema, recorder)
}
