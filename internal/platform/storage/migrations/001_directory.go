package migrations

import (
	"gorm.io/gorm"
)

// Migration001Directory creates the store and artifact tables.
type Migration001Directory struct{}

func (m *Migration001Directory) Version() string {
	return "001_directory"
}

func (m *Migration001Directory) Description() string {
	return "Create stores and artifacts tables"
}

func (m *Migration001Directory) Up(db *gorm.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS stores (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			phone TEXT NOT NULL,
			floor TEXT NOT NULL,
			map_location TEXT NOT NULL DEFAULT 'MapComponent',
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			bucket TEXT NOT NULL,
			digest TEXT NOT NULL,
			descriptor JSON NOT NULL,
			created_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_category ON artifacts(category)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
