// Package vault implements envelope encryption for cloud-provider secrets.
//
// Every account gets a fresh data encryption key (DEK) at creation time. The
// provider secret is encrypted under the DEK, and the DEK is encrypted under
// the process-wide master key. A database compromise alone therefore never
// yields usable credentials, and rotating the master key only requires
// re-wrapping DEKs, not re-encrypting every secret.
package vault

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	wrapping "github.com/hashicorp/go-kms-wrapping/v2"
	"github.com/hashicorp/go-kms-wrapping/v2/aead"
)

const dekSize = 32

// CryptoError reports a failure inside the vault: a malformed master key,
// a tampered ciphertext, or a key mismatch on decrypt. The wrapped error is
// for operator logs; callers on the scan path surface only a generic message.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("vault %s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error { return e.Err }

// Vault holds the process master key behind an AES-GCM AEAD wrapper. It is
// constructed once at startup and injected; the key is never read from
// ambient state and never rotated at runtime.
type Vault struct {
	master wrapping.Wrapper
}

// New builds a Vault around the given master key bytes. The key must be a
// valid AES key length (16, 24 or 32 bytes).
func New(masterKey []byte) (*Vault, error) {
	w, err := newAESGCMWrapper("master", masterKey)
	if err != nil {
		return nil, &CryptoError{Op: "init", Err: err}
	}
	return &Vault{master: w}, nil
}

// CreateAccountSecret generates a fresh DEK, encrypts plaintextSecret under
// it, wraps the DEK under the master key, and returns both ciphertexts as
// opaque base64 strings for storage.
func (v *Vault) CreateAccountSecret(ctx context.Context, plaintextSecret string) (dekCiphertext, secretCiphertext string, err error) {
	dek := make([]byte, dekSize)
	if _, err := rand.Read(dek); err != nil {
		return "", "", &CryptoError{Op: "generate dek", Err: err}
	}

	dekWrapper, err := newAESGCMWrapper("dek", dek)
	if err != nil {
		return "", "", &CryptoError{Op: "init dek", Err: err}
	}

	secretBlob, err := dekWrapper.Encrypt(ctx, []byte(plaintextSecret))
	if err != nil {
		return "", "", &CryptoError{Op: "encrypt secret", Err: err}
	}
	secretCiphertext, err = encodeBlob(secretBlob)
	if err != nil {
		return "", "", &CryptoError{Op: "encode secret", Err: err}
	}

	dekBlob, err := v.master.Encrypt(ctx, dek)
	if err != nil {
		return "", "", &CryptoError{Op: "wrap dek", Err: err}
	}
	dekCiphertext, err = encodeBlob(dekBlob)
	if err != nil {
		return "", "", &CryptoError{Op: "encode dek", Err: err}
	}

	return dekCiphertext, secretCiphertext, nil
}

// RevealAccountSecret unwraps the DEK under the master key, then decrypts the
// secret under the recovered DEK. Any authentication failure on either layer
// returns a CryptoError; corrupted plaintext is never returned silently.
func (v *Vault) RevealAccountSecret(ctx context.Context, dekCiphertext, secretCiphertext string) (string, error) {
	dekBlob, err := decodeBlob(dekCiphertext)
	if err != nil {
		return "", &CryptoError{Op: "decode dek", Err: err}
	}

	dek, err := v.master.Decrypt(ctx, dekBlob)
	if err != nil {
		return "", &CryptoError{Op: "unwrap dek", Err: err}
	}

	dekWrapper, err := newAESGCMWrapper("dek", dek)
	if err != nil {
		return "", &CryptoError{Op: "init dek", Err: err}
	}

	secretBlob, err := decodeBlob(secretCiphertext)
	if err != nil {
		return "", &CryptoError{Op: "decode secret", Err: err}
	}

	plaintext, err := dekWrapper.Decrypt(ctx, secretBlob)
	if err != nil {
		return "", &CryptoError{Op: "decrypt secret", Err: err}
	}

	return string(plaintext), nil
}

func newAESGCMWrapper(keyID string, key []byte) (*aead.Wrapper, error) {
	w := aead.NewWrapper()
	if _, err := w.SetConfig(context.Background(), wrapping.WithKeyId(keyID)); err != nil {
		return nil, fmt.Errorf("set wrapper config: %w", err)
	}
	if err := w.SetAesGcmKeyBytes(key); err != nil {
		return nil, fmt.Errorf("set key bytes: %w", err)
	}
	return w, nil
}

// Stored ciphertexts are base64 over the wrapper's iv||ciphertext bytes.
// Every stored byte is covered by the GCM authentication tag, so a flip
// anywhere fails decryption instead of yielding altered plaintext.
func encodeBlob(blob *wrapping.BlobInfo) (string, error) {
	if len(blob.Ciphertext) == 0 {
		return "", fmt.Errorf("wrapper returned empty ciphertext")
	}
	return base64.StdEncoding.EncodeToString(blob.Ciphertext), nil
}

func decodeBlob(s string) (*wrapping.BlobInfo, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	// 12-byte GCM nonce plus 16-byte tag is the minimum possible blob.
	if len(b) < 28 {
		return nil, fmt.Errorf("ciphertext too short")
	}
	return &wrapping.BlobInfo{Ciphertext: b}, nil
}
