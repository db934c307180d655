package model

import (
	"encoding/json"
	"time"
)

// CloudResource is one discovered provider resource. Rows are owned entirely
// by the reconciler: created in bulk on each successful scan, never updated
// field-by-field, and deleted when their scope is replaced or the owning
// account is removed.
type CloudResource struct {
	ID           string          `json:"id" db:"id"`
	AccountID    string          `json:"account_id" db:"account_id"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   string          `json:"resource_id" db:"resource_id"`
	Region       *string         `json:"region,omitempty" db:"region"`
	Detail       json.RawMessage `json:"detail" db:"detail"`
	DiscoveredAt time.Time       `json:"discovered_at" db:"discovered_at"`
}
