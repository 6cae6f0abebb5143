package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rewardhub/internal/config"
	"rewardhub/internal/logger"
	"rewardhub/internal/repository"
)

// OpenMySQL connects, sizes the pool and migrates one table per collection.
func OpenMySQL(cfg *config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		// every remote write is a single statement
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(repository.Models()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("mysql connected", "host", cfg.Host, "database", cfg.Database)
	return db, nil
}
