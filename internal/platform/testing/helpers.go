// Package testing holds fixtures shared by package tests.
package testing

import (
	"fmt"
	"io"
	"testing"
	"time"

	"gorm.io/gorm"

	"mallguide-server-go/internal/platform/config"
	"mallguide-server-go/internal/platform/logging"
	"mallguide-server-go/internal/platform/storage"
)

// SetupTestConfig returns defaults pointed at temporary, in-memory
// resources: memory directory and session stores, a free port and no
// static console.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Log.Level = "debug"
	cfg.Log.Dir = t.TempDir()
	cfg.Log.File = "test.log"
	cfg.Web.StaticDir = ""
	cfg.Database.Path = MemoryDSN("config")
	cfg.Directory.Store.Driver = "memory"
	cfg.Gate.Store.Type = "memory"
	cfg.Gate.JWTSecret = "test-secret"
	return cfg
}

// SetupTestLogger returns a file logger in a temporary directory with the
// console silenced.
func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	logger, err := logging.New(logging.Config{
		Level:    "debug",
		Dir:      t.TempDir(),
		Filename: "test.log",
		Console:  io.Discard,
		NoColor:  true,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })
	return logger
}

// MemoryDSN returns a unique shared-cache in-memory SQLite DSN.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", name, time.Now().UnixNano())
}

// SetupTestDB opens a migrated in-memory database closed at test end.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := storage.OpenDatabase(storage.DatabaseConfig{Path: MemoryDSN(t.Name())})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = storage.CloseDatabase(db) })
	return db
}
