package stores

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/malwarebo/payper/models"
)

// ContentStore persists the fingerprint -> content_id map. Rows are
// append-only: inserted once via a conditional write and never updated or
// deleted, so the dedup memory is permanent.
type ContentStore struct {
	BaseStore
}

func CreateContentStore(db *gorm.DB) *ContentStore {
	return &ContentStore{BaseStore: BaseStore{db: db}}
}

// GetByFingerprint returns the record for a fingerprint, or nil when none
// exists yet.
func (s *ContentStore) GetByFingerprint(ctx context.Context, fingerprint string) (*models.ContentRecord, error) {
	var record models.ContentRecord
	err := s.GetDB(ctx).First(&record, "fingerprint = ?", fingerprint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateIfAbsent attempts the conditional insert that resolves registration
// races: exactly one concurrent writer per fingerprint succeeds. Returns
// false when another writer got there first; the caller then re-reads the
// winner's record.
func (s *ContentStore) CreateIfAbsent(ctx context.Context, record *models.ContentRecord) (bool, error) {
	result := s.GetDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
