package workflow

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/herense/cloudsentinel/internal/activity"
	"github.com/herense/cloudsentinel/internal/model"
)

// ScanAccountWorkflow runs one inventory scan of a cloud account in a single
// region. Activities run with MaximumAttempts 1: a failed enumeration marks
// the job failed rather than retrying against provider rate limits with
// decrypted credentials.
func ScanAccountWorkflow(ctx workflow.Context, params model.ScanWorkflowParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	err := workflow.ExecuteActivity(ctx, "MarkScanJobRunning", params.JobID).Get(ctx, nil)
	if err != nil {
		return err
	}

	var summary model.ScanSummary
	err = workflow.ExecuteActivity(ctx, "ScanAndReconcile", params).Get(ctx, &summary)
	if err != nil {
		_ = setScanFailed(ctx, params, err)
		return err
	}

	err = workflow.ExecuteActivity(ctx, "CompleteScanJob", activity.CompleteScanJobParams{
		JobID:   params.JobID,
		Summary: summary,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	return workflow.ExecuteActivity(ctx, "UpdateAccountScanStatus", activity.UpdateAccountScanStatusParams{
		AccountID: params.AccountID,
		Status:    model.ScanStatusSuccess,
	}).Get(ctx, nil)
}

// setScanFailed records the failure on both the job and the account. Callers
// ignore its error since the scan error is the one that matters.
func setScanFailed(ctx workflow.Context, params model.ScanWorkflowParams, scanErr error) error {
	err := workflow.ExecuteActivity(ctx, "FailScanJob", activity.FailScanJobParams{
		JobID:   params.JobID,
		Message: failureMessage(scanErr),
	}).Get(ctx, nil)
	if err != nil {
		return err
	}
	return workflow.ExecuteActivity(ctx, "UpdateAccountScanStatus", activity.UpdateAccountScanStatusParams{
		AccountID: params.AccountID,
		Status:    model.ScanStatusFailed,
	}).Get(ctx, nil)
}

// failureMessage extracts the message the activity returned. The error seen
// by the workflow is the SDK's activity-error wrapper, whose Error() string
// carries event IDs and worker identity; only the application message belongs
// on the scan_jobs row.
func failureMessage(scanErr error) string {
	var appErr *temporal.ApplicationError
	if errors.As(scanErr, &appErr) {
		return appErr.Message()
	}
	return scanErr.Error()
}
