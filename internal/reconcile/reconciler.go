// Package reconcile replaces stored inventory snapshots with freshly
// enumerated cloud resources. A reconciliation run is scoped to an account
// plus, for region-bound resource types, a region; each run swaps the whole
// scope in a single transaction so readers never observe a half-replaced
// snapshot.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/herense/cloudsentinel/internal/model"
	"github.com/herense/cloudsentinel/internal/platform"
)

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Reconciler struct {
	db TxBeginner
}

func New(db TxBeginner) *Reconciler {
	return &Reconciler{db: db}
}

// Scope is one resource-type slice of an inventory snapshot. A nil Region
// means the scope is account-global: the delete covers rows of that type in
// every region, which is how bucket listings work since the provider returns
// buckets from all regions in one call.
type Scope struct {
	ResourceType string
	Region       *string
	Items        []model.CloudResource
}

// ReplaceInventory swaps all given scopes atomically. Either every scope
// reflects the new enumeration or none does. The transaction first takes a
// row lock on the account, so concurrent runs for the same account execute
// one after the other and the later commit wins whole; without the lock two
// runs whose deletes match disjoint row sets could both commit and leave the
// scope with rows from both snapshots.
func (r *Reconciler) ReplaceInventory(ctx context.Context, accountID string, scopes []Scope) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reconcile transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `SELECT id FROM cloud_accounts WHERE id = $1 FOR UPDATE`, accountID)
	if err != nil {
		return fmt.Errorf("lock account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", accountID)
	}

	now := time.Now()
	for _, scope := range scopes {
		if err := replaceScope(ctx, tx, accountID, scope, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reconcile transaction: %w", err)
	}
	return nil
}

func replaceScope(ctx context.Context, tx pgx.Tx, accountID string, scope Scope, now time.Time) error {
	var err error
	if scope.Region != nil {
		_, err = tx.Exec(ctx,
			`DELETE FROM cloud_resources WHERE account_id = $1 AND resource_type = $2 AND region = $3`,
			accountID, scope.ResourceType, *scope.Region)
	} else {
		_, err = tx.Exec(ctx,
			`DELETE FROM cloud_resources WHERE account_id = $1 AND resource_type = $2`,
			accountID, scope.ResourceType)
	}
	if err != nil {
		return fmt.Errorf("delete %s scope: %w", scope.ResourceType, err)
	}

	for _, item := range scope.Items {
		region := item.Region
		if region == nil {
			region = scope.Region
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO cloud_resources (id, account_id, resource_type, resource_id, region, detail, discovered_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			platform.NewID(), accountID, scope.ResourceType, item.ResourceID, region, item.Detail, now)
		if err != nil {
			return fmt.Errorf("insert %s %s: %w", scope.ResourceType, item.ResourceID, err)
		}
	}
	return nil
}
