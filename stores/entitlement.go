package stores

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/malwarebo/payper/models"
)

// EntitlementStore persists who owns what. Uniqueness per (user_id,
// content_id) is enforced by the composite index plus a conditional insert,
// not by application-level locking.
type EntitlementStore struct {
	BaseStore
}

func CreateEntitlementStore(db *gorm.DB) *EntitlementStore {
	return &EntitlementStore{BaseStore: BaseStore{db: db}}
}

func (s *EntitlementStore) Has(ctx context.Context, userID, contentID string) (bool, error) {
	var count int64
	err := s.GetDB(ctx).
		Model(&models.Entitlement{}).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GrantIfAbsent inserts the entitlement unless the pair already owns one, in
// which case the existing row is returned. Duplicate grants are idempotent
// no-ops so retried fulfillment steps are safe.
func (s *EntitlementStore) GrantIfAbsent(ctx context.Context, userID, contentID string) (*models.Entitlement, error) {
	ent := &models.Entitlement{
		UserID:    userID,
		ContentID: contentID,
	}

	result := s.GetDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_id"}},
		DoNothing: true,
	}).Create(ent)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 1 {
		return ent, nil
	}

	var existing models.Entitlement
	if err := s.GetDB(ctx).
		First(&existing, "user_id = ? AND content_id = ?", userID, contentID).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (s *EntitlementStore) ListByUser(ctx context.Context, userID string) ([]*models.Entitlement, error) {
	var entitlements []*models.Entitlement
	if err := s.GetDB(ctx).Where("user_id = ?", userID).Find(&entitlements).Error; err != nil {
		return nil, err
	}
	return entitlements, nil
}
