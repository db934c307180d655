package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/herense/cloudsentinel/internal/model"
	"github.com/herense/cloudsentinel/internal/platform"
)

const taskQueue = "cloudsentinel-tasks"

// ScanWorkflowName is the registered name of the account scan workflow.
const ScanWorkflowName = "ScanAccountWorkflow"

// workflowID builds a human-readable Temporal workflow ID from a prefix and
// the identifiers that scope the run.
func workflowID(prefix string, parts ...string) string {
	id := prefix
	for _, p := range parts {
		id += "-" + p
	}
	return id
}

type ScanService struct {
	db DB
	tc temporalclient.Client
}

func NewScanService(db DB, tc temporalclient.Client) *ScanService {
	return &ScanService{db: db, tc: tc}
}

// Dispatch records a queued scan job for the account/region pair and starts
// the scan workflow. The HTTP request returns as soon as the job row exists;
// progress is observed through GetJob.
func (s *ScanService) Dispatch(ctx context.Context, accountID, userID, region string) (*model.ScanJob, error) {
	var ownerID string
	err := s.db.QueryRow(ctx,
		`SELECT user_id FROM cloud_accounts WHERE id = $1 AND user_id = $2`, accountID, userID,
	).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cloud account %s: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve cloud account %s: %w", accountID, err)
	}

	now := time.Now()
	job := &model.ScanJob{
		ID:        platform.NewID(),
		AccountID: accountID,
		Region:    region,
		Status:    model.JobStateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO scan_jobs (id, account_id, region, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.AccountID, job.Region, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert scan job: %w", err)
	}

	_, err = s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        workflowID("scan", accountID, region, job.ID),
		TaskQueue: taskQueue,
	}, ScanWorkflowName, model.ScanWorkflowParams{
		JobID:     job.ID,
		AccountID: accountID,
		UserID:    userID,
		Region:    region,
	})
	if err != nil {
		// The job row stays queued; surface the dispatch failure to the caller.
		return nil, fmt.Errorf("start scan workflow: %w", err)
	}

	return job, nil
}

// GetJob returns a scan job, scoped to jobs on accounts the user owns.
func (s *ScanService) GetJob(ctx context.Context, jobID, userID string) (*model.ScanJob, error) {
	var j model.ScanJob
	err := s.db.QueryRow(ctx,
		`SELECT j.id, j.account_id, j.region, j.status, j.result, j.error_message, j.created_at, j.updated_at
		 FROM scan_jobs j JOIN cloud_accounts a ON a.id = j.account_id
		 WHERE j.id = $1 AND a.user_id = $2`, jobID, userID,
	).Scan(&j.ID, &j.AccountID, &j.Region, &j.Status, &j.Result, &j.ErrorMessage, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scan job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get scan job %s: %w", jobID, err)
	}
	return &j, nil
}
