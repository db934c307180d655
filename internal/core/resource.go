package core

import (
	"context"
	"fmt"

	"github.com/herense/cloudsentinel/internal/model"
)

type ResourceService struct {
	db DB
}

func NewResourceService(db DB) *ResourceService {
	return &ResourceService{db: db}
}

// ListByAccount returns the current inventory snapshot for an account the
// user owns. Missing and not-owned accounts are indistinguishable.
func (s *ResourceService) ListByAccount(ctx context.Context, accountID, userID string) ([]model.CloudResource, error) {
	var ownerID string
	err := s.db.QueryRow(ctx,
		`SELECT user_id FROM cloud_accounts WHERE id = $1 AND user_id = $2`, accountID, userID,
	).Scan(&ownerID)
	if err != nil {
		return nil, fmt.Errorf("cloud account %s: %w", accountID, ErrNotFound)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, account_id, resource_type, resource_id, region, detail, discovered_at
		 FROM cloud_resources WHERE account_id = $1 ORDER BY resource_type, resource_id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list cloud resources: %w", err)
	}
	defer rows.Close()

	var resources []model.CloudResource
	for rows.Next() {
		var r model.CloudResource
		if err := rows.Scan(&r.ID, &r.AccountID, &r.ResourceType, &r.ResourceID,
			&r.Region, &r.Detail, &r.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("scan cloud resource: %w", err)
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cloud resources: %w", err)
	}
	return resources, nil
}
