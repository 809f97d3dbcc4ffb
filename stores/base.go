package stores

import (
	"context"

	"gorm.io/gorm"
)

type BaseStore struct {
	db *gorm.DB
}

// GetDB returns the connection bound to the request context. Writes here are
// single-statement conditional inserts, so no cross-store transaction
// machinery is needed.
func (s *BaseStore) GetDB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
