// Package database owns the gorm connection shared by all modules.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mantonx/mediacat/internal/config"
)

var (
	db   *gorm.DB
	dbMu sync.RWMutex
)

// Initialize opens the database connection described by the configuration.
func Initialize(cfg *config.DatabaseConfig) error {
	var (
		conn *gorm.DB
		err  error
	)

	logMode := gormlogger.Default.LogMode(gormlogger.Silent)
	if cfg.LogQueries {
		logMode = gormlogger.Default.LogMode(gormlogger.Info)
	}

	switch cfg.Type {
	case "postgres":
		conn, err = connectPostgres(cfg, logMode)
	case "sqlite":
		conn, err = connectSQLite(cfg, logMode)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	dbMu.Lock()
	db = conn
	dbMu.Unlock()
	return nil
}

func connectPostgres(cfg *config.DatabaseConfig, logMode gormlogger.Interface) (*gorm.DB, error) {
	dsn := cfg.URL
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logMode})
}

func connectSQLite(cfg *config.DatabaseConfig, logMode gormlogger.Interface) (*gorm.DB, error) {
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = "/app/mediacat-data/mediacat.db"
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	return gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logMode})
}

// GetDB returns the shared database instance.
func GetDB() *gorm.DB {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return db
}

// SetDB overrides the shared instance. Used by tests with in-memory sqlite.
func SetDB(conn *gorm.DB) {
	dbMu.Lock()
	defer dbMu.Unlock()
	db = conn
}
