package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB stores a free-form JSON object. Postgres keeps it in a jsonb
// column; sqlite falls back to a TEXT blob.
type JSONB map[string]any

// Value implements driver.Valuer.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONB) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
	return json.Unmarshal(data, j)
}
