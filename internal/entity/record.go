package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one row of an entity table keyed by column name.
type Record map[string]any

// Values projects the record onto columns, positionally.
func (r Record) Values(columns []string) []any {
	out := make([]any, len(columns))
	for i, col := range columns {
		out[i] = r[col]
	}
	return out
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ParseID converts a primary key value read from the store or the grid.
func ParseID(v any) (int64, error) {
	switch id := v.(type) {
	case int64:
		return id, nil
	case int32:
		return int64(id), nil
	case int:
		return int64(id), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("entity: parse id %q: %w", id, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("entity: missing id")
	default:
		return 0, fmt.Errorf("entity: unsupported id type %T", v)
	}
}
