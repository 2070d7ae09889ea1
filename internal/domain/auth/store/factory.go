package store

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Dependencies carries handles some drivers need.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// New builds the store selected by cfg.Driver, defaulting to memory.
func New(cfg Config, deps Dependencies) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(cfg), nil
	case DriverSQLite:
		return NewSQLite(deps.SQLiteDB, cfg)
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported session store driver: %s", cfg.Driver)
	}
}
