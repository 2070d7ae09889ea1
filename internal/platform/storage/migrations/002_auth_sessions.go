package migrations

import (
	"gorm.io/gorm"
)

// Migration002AuthSessions creates the admin session table used by the
// sqlite gate store.
type Migration002AuthSessions struct{}

func (m *Migration002AuthSessions) Version() string {
	return "002_auth_sessions"
}

func (m *Migration002AuthSessions) Description() string {
	return "Create auth_sessions table"
}

func (m *Migration002AuthSessions) Up(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS auth_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id VARCHAR(255) NOT NULL UNIQUE,
			username VARCHAR(255) NOT NULL,
			ip VARCHAR(255),
			created_at DATETIME NOT NULL,
			expires_at DATETIME,
			metadata JSON
		)
	`).Error; err != nil {
		return err
	}
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_auth_sessions_expires_at ON auth_sessions(expires_at)`).Error
}
