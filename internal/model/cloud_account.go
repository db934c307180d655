package model

import "time"

// CloudAccount is one registered cloud-provider credential set, owned by
// exactly one user. The provider secret is stored as two ciphertexts:
// SecretCiphertext is encrypted under a per-account data encryption key,
// and DEKCiphertext is that key encrypted under the process master key.
// Neither ciphertext is ever serialized to API responses or logs.
type CloudAccount struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	Name             string     `json:"name" db:"name"`
	Provider         string     `json:"provider" db:"provider"`
	AccessKeyID      string     `json:"access_key_id" db:"access_key_id"`
	TenantID         *string    `json:"tenant_id,omitempty" db:"tenant_id"`
	DEKCiphertext    string     `json:"-" db:"dek_ciphertext"`
	SecretCiphertext string     `json:"-" db:"secret_ciphertext"`
	LastScanStatus   string     `json:"last_scan_status" db:"last_scan_status"`
	LastScanAt       *time.Time `json:"last_scan_at,omitempty" db:"last_scan_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}
