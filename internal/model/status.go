package model

// Cloud provider tags.
const (
	ProviderAWS   = "AWS"
	ProviderAzure = "AZURE"
	ProviderGCP   = "GCP"
)

// Last-scan status values on a cloud account.
const (
	ScanStatusPending = "Pending"
	ScanStatusSuccess = "Success"
	ScanStatusFailed  = "Failed"
)

// Scan job lifecycle states. Transitions are strictly forward:
// queued -> running -> succeeded | failed. Terminal states are immutable.
const (
	JobStateQueued    = "queued"
	JobStateRunning   = "running"
	JobStateSucceeded = "succeeded"
	JobStateFailed    = "failed"
)

// Resource kinds. The set is open for extension; these are the kinds the
// AWS provider enumerates today.
const (
	ResourceTypeComputeInstance = "ec2_instance"
	ResourceTypeStorageBucket   = "s3_bucket"
	ResourceTypeManagedDatabase = "rds_instance"
)
