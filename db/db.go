package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/malwarebo/payper/models"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open connects to Postgres with pool limits applied. The purchase path
// leans on the database for all cross-process coordination, so conservative
// pool limits matter more here than raw throughput.
func Open(dsn string, config PoolConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %v", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	return database, nil
}

// AutoMigrate creates the purchase tables. The unique constraints it creates
// are load-bearing: the registry and entitlement conditional inserts depend
// on the fingerprint primary key and the (user_id, content_id) unique index.
func AutoMigrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.ContentRecord{},
		&models.Entitlement{},
		&models.PurchaseAudit{},
	)
}
