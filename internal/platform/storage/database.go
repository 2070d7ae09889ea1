package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mallguide-server-go/internal/platform/errors"
	"mallguide-server-go/internal/platform/storage/migrations"
)

// DatabaseConfig selects the SQLite database to open.
type DatabaseConfig struct {
	// Path is a file path or a "file:" DSN such as
	// "file:test?mode=memory&cache=shared".
	Path    string
	Verbose bool
}

// OpenDatabase opens the SQLite database and applies pending migrations.
func OpenDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	const op = "storage.open"

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New(errors.KindConfig, op, "database path is required")
	}
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, op, "failed to create data directory", err)
		}
	}

	logMode := logger.Silent
	if cfg.Verbose {
		logMode = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, fmt.Sprintf("failed to open %s", path), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "failed to access connection pool", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "failed to enable foreign keys", err)
	}

	manager := NewMigrationManager(db)
	manager.AddMigration(&migrations.Migration001Directory{})
	manager.AddMigration(&migrations.Migration002AuthSessions{})
	if err := manager.RunMigrations(); err != nil {
		return nil, err
	}

	return db, nil
}

// CloseDatabase releases the underlying connection pool.
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
