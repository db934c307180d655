package core

import (
	"time"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/herense/cloudsentinel/internal/vault"
)

type Services struct {
	User     *UserService
	Account  *AccountService
	Resource *ResourceService
	Scan     *ScanService
}

func NewServices(db DB, tc temporalclient.Client, v *vault.Vault, awsCallTimeout time.Duration) *Services {
	return &Services{
		User:     NewUserService(db),
		Account:  NewAccountService(db, v, awsCallTimeout),
		Resource: NewResourceService(db),
		Scan:     NewScanService(db, tc),
	}
}
