package model

// ScanWorkflowParams is the argument passed to the account scan workflow.
// It carries identifiers only; credentials are resolved and decrypted inside
// the activity so plaintext secrets never cross a workflow payload.
type ScanWorkflowParams struct {
	JobID     string `json:"job_id"`
	AccountID string `json:"account_id"`
	UserID    string `json:"user_id"`
	Region    string `json:"region"`
}
