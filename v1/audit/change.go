package audit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ChangeKind classifies a detected difference between two snapshots
type ChangeKind string

const (
	// ChangeModified is a scalar or nested value change carrying both sides
	ChangeModified ChangeKind = "modified"
	// ChangeAdded is an item that joined a named-item collection
	ChangeAdded ChangeKind = "added"
	// ChangeRemoved is an item that left a named-item collection
	ChangeRemoved ChangeKind = "removed"
)

// Change represents one field-level difference between two entity snapshots.
// For "modified" changes Before and After carry both sides; for "added" and
// "removed" changes only Value is populated with the item's identity label.
type Change struct {
	Field  string     `json:"field"`
	Kind   ChangeKind `json:"kind"`
	Before any        `json:"before,omitempty"`
	After  any        `json:"after,omitempty"`
	Value  any        `json:"value,omitempty"`
}

// ChangeList is an ordered sequence of changes persisted as a JSON text column
type ChangeList []Change

// Value implements driver.Valuer so GORM stores the list as JSON text
func (c ChangeList) Value() (driver.Value, error) {
	if c == nil {
		c = ChangeList{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal change list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner to read the JSON text column back
func (c *ChangeList) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*c = ChangeList{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported change list column type %T", value)
	}
}
