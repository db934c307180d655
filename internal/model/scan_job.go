package model

import (
	"encoding/json"
	"time"
)

// ScanJob tracks one dispatched inventory scan. The row is created in state
// queued when the job is dispatched; the workflow moves it to running and
// finally to succeeded or failed. Terminal rows are kept for polling.
type ScanJob struct {
	ID           string          `json:"job_id" db:"id"`
	AccountID    string          `json:"account_id" db:"account_id"`
	Region       string          `json:"region" db:"region"`
	Status       string          `json:"state" db:"status"`
	Result       json.RawMessage `json:"result,omitempty" db:"result"`
	ErrorMessage *string         `json:"error,omitempty" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ScanSummary is the result payload stored on a succeeded scan job.
type ScanSummary struct {
	ComputeInstances int `json:"compute_instances"`
	StorageBuckets   int `json:"storage_buckets"`
	ManagedDatabases int `json:"managed_databases"`
	Total            int `json:"total"`
}
