package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/herense/cloudsentinel/internal/cloud"
	"github.com/herense/cloudsentinel/internal/metrics"
	"github.com/herense/cloudsentinel/internal/model"
	"github.com/herense/cloudsentinel/internal/reconcile"
	"github.com/herense/cloudsentinel/internal/vault"
)

// DB defines the database operations used by activity structs.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ScanActivities enumerates cloud resources for an account and reconciles
// them into the inventory tables.
type ScanActivities struct {
	db          DB
	reconciler  *reconcile.Reconciler
	vault       *vault.Vault
	callTimeout time.Duration

	// newProvider is swappable in tests.
	newProvider func(provider string, creds cloud.Credentials, region string, callTimeout time.Duration) (cloud.Provider, error)
}

func NewScanActivities(db DB, reconciler *reconcile.Reconciler, v *vault.Vault, callTimeout time.Duration) *ScanActivities {
	return &ScanActivities{
		db:          db,
		reconciler:  reconciler,
		vault:       v,
		callTimeout: callTimeout,
		newProvider: cloud.NewProvider,
	}
}

// ScanAndReconcile resolves the account's credentials, enumerates compute,
// storage, and database resources in the given region, and swaps the stored
// snapshot. It is a single activity so the decrypted secret never crosses an
// activity boundary or lands in a workflow payload.
func (a *ScanActivities) ScanAndReconcile(ctx context.Context, params model.ScanWorkflowParams) (*model.ScanSummary, error) {
	var accessKeyID, provider, dekCiphertext, secretCiphertext string
	err := a.db.QueryRow(ctx,
		`SELECT access_key_id, provider, dek_ciphertext, secret_ciphertext
		 FROM cloud_accounts WHERE id = $1 AND user_id = $2`,
		params.AccountID, params.UserID,
	).Scan(&accessKeyID, &provider, &dekCiphertext, &secretCiphertext)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cloud account %s not found", params.AccountID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve cloud account: %w", err)
	}

	secret, err := a.vault.RevealAccountSecret(ctx, dekCiphertext, secretCiphertext)
	if err != nil {
		// Never propagate cipher details into workflow history.
		return nil, errors.New("credential error")
	}

	adapter, err := a.newProvider(provider, cloud.Credentials{AccessKeyID: accessKeyID, SecretKey: secret}, params.Region, a.callTimeout)
	if err != nil {
		return nil, err
	}

	instances, err := adapter.ListComputeInstances(ctx)
	if err != nil {
		return nil, sanitize(err)
	}
	buckets, err := adapter.ListStorageBuckets(ctx)
	if err != nil {
		return nil, sanitize(err)
	}
	databases, err := adapter.ListManagedDatabases(ctx)
	if err != nil {
		return nil, sanitize(err)
	}

	region := params.Region
	scopes := []reconcile.Scope{
		{ResourceType: model.ResourceTypeComputeInstance, Region: &region, Items: instanceRows(region, instances)},
		{ResourceType: model.ResourceTypeManagedDatabase, Region: &region, Items: databaseRows(region, databases)},
		{ResourceType: model.ResourceTypeStorageBucket, Region: nil, Items: bucketRows(buckets)},
	}
	if err := a.reconciler.ReplaceInventory(ctx, params.AccountID, scopes); err != nil {
		return nil, err
	}

	metrics.ResourcesDiscovered.WithLabelValues(model.ResourceTypeComputeInstance).Add(float64(len(instances)))
	metrics.ResourcesDiscovered.WithLabelValues(model.ResourceTypeStorageBucket).Add(float64(len(buckets)))
	metrics.ResourcesDiscovered.WithLabelValues(model.ResourceTypeManagedDatabase).Add(float64(len(databases)))

	return &model.ScanSummary{
		ComputeInstances: len(instances),
		StorageBuckets:   len(buckets),
		ManagedDatabases: len(databases),
		Total:            len(instances) + len(buckets) + len(databases),
	}, nil
}

// sanitize strips provider error internals before they reach workflow
// history or the scan_jobs row.
func sanitize(err error) error {
	var providerErr *cloud.ProviderError
	if errors.As(err, &providerErr) {
		return errors.New(providerErr.Sanitized())
	}
	return err
}

func instanceRows(region string, instances []cloud.ComputeInstance) []model.CloudResource {
	rows := make([]model.CloudResource, 0, len(instances))
	for _, inst := range instances {
		detail, _ := json.Marshal(inst)
		r := region
		rows = append(rows, model.CloudResource{ResourceID: inst.InstanceID, Region: &r, Detail: detail})
	}
	return rows
}

func bucketRows(buckets []cloud.StorageBucket) []model.CloudResource {
	rows := make([]model.CloudResource, 0, len(buckets))
	for _, b := range buckets {
		detail, _ := json.Marshal(b)
		region := b.Region
		rows = append(rows, model.CloudResource{ResourceID: b.Name, Region: &region, Detail: detail})
	}
	return rows
}

func databaseRows(region string, databases []cloud.DBInstance) []model.CloudResource {
	rows := make([]model.CloudResource, 0, len(databases))
	for _, d := range databases {
		detail, _ := json.Marshal(d)
		r := region
		rows = append(rows, model.CloudResource{ResourceID: d.Identifier, Region: &r, Detail: detail})
	}
	return rows
}

// MarkScanJobRunning moves a queued job to running.
func (a *ScanActivities) MarkScanJobRunning(ctx context.Context, jobID string) error {
	_, err := a.db.Exec(ctx,
		`UPDATE scan_jobs SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		model.JobStateRunning, jobID, model.JobStateQueued)
	if err != nil {
		return fmt.Errorf("mark scan job running: %w", err)
	}
	return nil
}

// CompleteScanJobParams holds the parameters for CompleteScanJob.
type CompleteScanJobParams struct {
	JobID   string
	Summary model.ScanSummary
}

// CompleteScanJob records the summary and moves the job to succeeded.
// Terminal states are never overwritten.
func (a *ScanActivities) CompleteScanJob(ctx context.Context, params CompleteScanJobParams) error {
	result, err := json.Marshal(params.Summary)
	if err != nil {
		return fmt.Errorf("marshal scan summary: %w", err)
	}
	_, err = a.db.Exec(ctx,
		`UPDATE scan_jobs SET status = $1, result = $2, updated_at = now()
		 WHERE id = $3 AND status = $4`,
		model.JobStateSucceeded, result, params.JobID, model.JobStateRunning)
	if err != nil {
		return fmt.Errorf("complete scan job: %w", err)
	}
	metrics.ScansTotal.WithLabelValues("succeeded").Inc()
	return nil
}

// FailScanJobParams holds the parameters for FailScanJob.
type FailScanJobParams struct {
	JobID   string
	Message string
}

// FailScanJob records the error message and moves the job to failed.
func (a *ScanActivities) FailScanJob(ctx context.Context, params FailScanJobParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE scan_jobs SET status = $1, error_message = $2, updated_at = now()
		 WHERE id = $3 AND status NOT IN ($4, $5)`,
		model.JobStateFailed, params.Message, params.JobID, model.JobStateSucceeded, model.JobStateFailed)
	if err != nil {
		return fmt.Errorf("fail scan job: %w", err)
	}
	metrics.ScansTotal.WithLabelValues("failed").Inc()
	return nil
}

// UpdateAccountScanStatusParams holds the parameters for UpdateAccountScanStatus.
type UpdateAccountScanStatusParams struct {
	AccountID string
	Status    string
}

// UpdateAccountScanStatus records the latest scan outcome on the account.
func (a *ScanActivities) UpdateAccountScanStatus(ctx context.Context, params UpdateAccountScanStatusParams) error {
	_, err := a.db.Exec(ctx,
		`UPDATE cloud_accounts SET last_scan_status = $1, last_scan_at = now() WHERE id = $2`,
		params.Status, params.AccountID)
	if err != nil {
		return fmt.Errorf("update account scan status: %w", err)
	}
	return nil
}
