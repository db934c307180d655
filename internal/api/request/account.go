package request

// CreateAccount registers a cloud account with its credential pair. The
// secret is accepted here once and never appears in any response.
type CreateAccount struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Provider    string  `json:"provider" validate:"required,oneof=AWS AZURE GCP"`
	AccessKeyID string  `json:"access_key_id" validate:"required"`
	Secret      string  `json:"secret_key" validate:"required"`
	TenantID    *string `json:"tenant_id,omitempty"`
}
