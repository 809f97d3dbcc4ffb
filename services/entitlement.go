package services

import (
	"context"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
)

// EntitlementStore persists ownership rows, unique per (user, content).
type EntitlementStore interface {
	Has(ctx context.Context, userID, contentID string) (bool, error)
	GrantIfAbsent(ctx context.Context, userID, contentID string) (*models.Entitlement, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Entitlement, error)
}

// EntitlementService answers "does this user own this content" and records
// grants. Grants are idempotent: granting an owned pair returns the existing
// record, so retried fulfillment steps are safe.
type EntitlementService struct {
	store EntitlementStore
}

func CreateEntitlementService(store EntitlementStore) *EntitlementService {
	return &EntitlementService{store: store}
}

func (s *EntitlementService) Has(ctx context.Context, userID, contentID string) (bool, error) {
	if userID == "" || contentID == "" {
		return false, utils.WrapError(utils.ErrInvalidRequest, "user_id and content_id are required")
	}
	return s.store.Has(ctx, userID, contentID)
}

func (s *EntitlementService) Grant(ctx context.Context, userID, contentID string) (*models.Entitlement, error) {
	if userID == "" || contentID == "" {
		return nil, utils.WrapError(utils.ErrInvalidRequest, "user_id and content_id are required")
	}
	return s.store.GrantIfAbsent(ctx, userID, contentID)
}

func (s *EntitlementService) List(ctx context.Context, userID string) ([]*models.Entitlement, error) {
	if userID == "" {
		return nil, utils.WrapError(utils.ErrInvalidRequest, "user_id is required")
	}
	return s.store.ListByUser(ctx, userID)
}
