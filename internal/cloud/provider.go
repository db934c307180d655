// Package cloud defines the provider adapter used by scan jobs to enumerate
// resources, and its AWS implementation. New providers are added by
// implementing Provider, not by branching on the provider tag elsewhere.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"

	"github.com/herense/cloudsentinel/internal/model"
)

// Provider is the capability set a cloud provider adapter must implement.
// Every enumeration is a full re-listing: no cursors are retained between
// calls, and results are safe to hand to the reconciler as a snapshot.
// Implementations enforce a per-call timeout on every provider API request.
type Provider interface {
	// TestConnection verifies the credential pair against the provider's
	// identity service and returns the caller identity.
	TestConnection(ctx context.Context) (Identity, error)
	ListComputeInstances(ctx context.Context) ([]ComputeInstance, error)
	ListStorageBuckets(ctx context.Context) ([]StorageBucket, error)
	ListManagedDatabases(ctx context.Context) ([]DBInstance, error)
}

// ProviderError wraps any upstream provider API failure with the operation
// that failed. Messages never contain credentials.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Sanitized returns a client-safe message for the failure: the failed
// operation plus the provider's error code and message when the underlying
// error is a provider API error. Request payloads, endpoints, and transport
// detail are dropped.
func (e *ProviderError) Sanitized() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return fmt.Sprintf("%s failed: %s: %s", e.Op, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Sprintf("%s failed", e.Op)
}

// Credentials is a decrypted provider credential pair. Values live only for
// the duration of one scan or connection test and are never persisted.
type Credentials struct {
	AccessKeyID string
	SecretKey   string
}

// NewProvider returns the adapter for the given provider tag.
func NewProvider(provider string, creds Credentials, region string, callTimeout time.Duration) (Provider, error) {
	switch provider {
	case model.ProviderAWS:
		return NewAWSProvider(creds, region, callTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}
