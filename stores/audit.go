package stores

import (
	"context"

	"gorm.io/gorm"

	"github.com/malwarebo/payper/models"
)

// AuditStore appends terminal purchase outcomes. Write-only from the purchase
// path; read by operators and reporting jobs.
type AuditStore struct {
	BaseStore
}

func CreateAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{BaseStore: BaseStore{db: db}}
}

func (s *AuditStore) Create(ctx context.Context, audit *models.PurchaseAudit) error {
	return s.GetDB(ctx).Create(audit).Error
}

func (s *AuditStore) ListByUser(ctx context.Context, userID string, limit int) ([]*models.PurchaseAudit, error) {
	var audits []*models.PurchaseAudit
	err := s.GetDB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&audits).Error
	if err != nil {
		return nil, err
	}
	return audits, nil
}
