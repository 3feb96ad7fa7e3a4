package suppliers

import (
	"github.com/onexcrm/onexcrm/internal/entity"
)

// NewRepository returns the generic repository bound to the supplier table.
func NewRepository(db entity.DB, devMode bool, recorder entity.Recorder) (*entity.Repository, error) {
	schema := Schema()
	if devMode {
		schema = schema.ForDevMode()
	}
	return entity.NewRepository(db, schema, recorder)
}
