package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/herense/cloudsentinel/internal/cloud"
	"github.com/herense/cloudsentinel/internal/model"
	"github.com/herense/cloudsentinel/internal/platform"
	"github.com/herense/cloudsentinel/internal/vault"
)

// defaultTestRegion is the region used for credential verification; STS is
// global, so any valid region works.
const defaultTestRegion = "eu-west-3"

type AccountService struct {
	db          DB
	vault       *vault.Vault
	callTimeout time.Duration
}

func NewAccountService(db DB, v *vault.Vault, callTimeout time.Duration) *AccountService {
	return &AccountService{db: db, vault: v, callTimeout: callTimeout}
}

// CreateAccountParams carries the registration input. Secret is the provider
// secret in plaintext; it is encrypted before anything is stored and is never
// echoed back.
type CreateAccountParams struct {
	Name        string
	Provider    string
	AccessKeyID string
	Secret      string
	TenantID    *string
}

func (s *AccountService) Create(ctx context.Context, userID string, params CreateAccountParams) (*model.CloudAccount, error) {
	var existingID string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM cloud_accounts WHERE user_id = $1 AND (name = $2 OR access_key_id = $3)`,
		userID, params.Name, params.AccessKeyID,
	).Scan(&existingID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("account with this name or access key: %w", ErrConflict)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("check duplicate account: %w", err)
	}

	dekCiphertext, secretCiphertext, err := s.vault.CreateAccountSecret(ctx, params.Secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt account secret: %w", err)
	}

	account := &model.CloudAccount{
		ID:               platform.NewID(),
		UserID:           userID,
		Name:             params.Name,
		Provider:         params.Provider,
		AccessKeyID:      params.AccessKeyID,
		TenantID:         params.TenantID,
		DEKCiphertext:    dekCiphertext,
		SecretCiphertext: secretCiphertext,
		LastScanStatus:   model.ScanStatusPending,
		CreatedAt:        time.Now(),
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO cloud_accounts (id, user_id, name, provider, access_key_id, tenant_id, dek_ciphertext, secret_ciphertext, last_scan_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		account.ID, account.UserID, account.Name, account.Provider, account.AccessKeyID,
		account.TenantID, account.DEKCiphertext, account.SecretCiphertext, account.LastScanStatus, account.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cloud account: %w", err)
	}

	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id, userID string) (*model.CloudAccount, error) {
	var a model.CloudAccount
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, provider, access_key_id, tenant_id, last_scan_status, last_scan_at, created_at
		 FROM cloud_accounts WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&a.ID, &a.UserID, &a.Name, &a.Provider, &a.AccessKeyID, &a.TenantID,
		&a.LastScanStatus, &a.LastScanAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cloud account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cloud account %s: %w", id, err)
	}
	return &a, nil
}

func (s *AccountService) ListByUser(ctx context.Context, userID string) ([]model.CloudAccount, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, provider, access_key_id, tenant_id, last_scan_status, last_scan_at, created_at
		 FROM cloud_accounts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cloud accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.CloudAccount
	for rows.Next() {
		var a model.CloudAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Provider, &a.AccessKeyID, &a.TenantID,
			&a.LastScanStatus, &a.LastScanAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cloud account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cloud accounts: %w", err)
	}
	return accounts, nil
}

// Delete removes the account and, via the schema's cascades, its resource
// inventory, scan jobs, and cost/anomaly history.
func (s *AccountService) Delete(ctx context.Context, id, userID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM cloud_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete cloud account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cloud account %s: %w", id, ErrNotFound)
	}
	return nil
}

// Credentials resolves and decrypts the account's credential pair. The
// ownership check happens before any decryption; the returned plaintext must
// not outlive the operation it was fetched for.
func (s *AccountService) Credentials(ctx context.Context, id, userID string) (cloud.Credentials, string, error) {
	var accessKeyID, provider, dekCiphertext, secretCiphertext string
	err := s.db.QueryRow(ctx,
		`SELECT access_key_id, provider, dek_ciphertext, secret_ciphertext
		 FROM cloud_accounts WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&accessKeyID, &provider, &dekCiphertext, &secretCiphertext)
	if errors.Is(err, pgx.ErrNoRows) {
		return cloud.Credentials{}, "", fmt.Errorf("cloud account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return cloud.Credentials{}, "", fmt.Errorf("get cloud account credentials %s: %w", id, err)
	}

	secret, err := s.vault.RevealAccountSecret(ctx, dekCiphertext, secretCiphertext)
	if err != nil {
		return cloud.Credentials{}, "", fmt.Errorf("reveal account secret: %w", err)
	}

	return cloud.Credentials{AccessKeyID: accessKeyID, SecretKey: secret}, provider, nil
}

// TestConnection verifies the stored credential pair against the provider's
// identity service.
func (s *AccountService) TestConnection(ctx context.Context, id, userID string) (cloud.Identity, error) {
	creds, provider, err := s.Credentials(ctx, id, userID)
	if err != nil {
		return cloud.Identity{}, err
	}

	adapter, err := cloud.NewProvider(provider, creds, defaultTestRegion, s.callTimeout)
	if err != nil {
		return cloud.Identity{}, err
	}

	return adapter.TestConnection(ctx)
}

// UpdateScanStatus records the outcome of a finished scan on the account.
func (s *AccountService) UpdateScanStatus(ctx context.Context, id, status string, at time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE cloud_accounts SET last_scan_status = $1, last_scan_at = $2 WHERE id = $3`,
		status, at, id)
	if err != nil {
		return fmt.Errorf("update scan status for account %s: %w", id, err)
	}
	return nil
}
