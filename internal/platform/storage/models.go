package storage

import (
	"time"

	"gorm.io/datatypes"
)

// StoreRow is the stores table.
type StoreRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Category    string `gorm:"not null"`
	Description string `gorm:"not null"`
	Phone       string `gorm:"not null"`
	Floor       string `gorm:"not null"`
	MapLocation string `gorm:"column:map_location;not null"`
	CreatedAt   time.Time
}

func (StoreRow) TableName() string { return "stores" }

// ArtifactRow is the artifacts table. Descriptor holds the full JSON
// descriptor; the other columns exist for lookups.
type ArtifactRow struct {
	ID         string `gorm:"primaryKey"`
	Category   string `gorm:"index:idx_artifacts_category;not null"`
	Bucket     string `gorm:"not null"`
	Digest     string `gorm:"not null"`
	Descriptor datatypes.JSON
	CreatedAt  time.Time
}

func (ArtifactRow) TableName() string { return "artifacts" }

// AuthSession is the auth_sessions table.
type AuthSession struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"uniqueIndex;not null"`
	Username  string `gorm:"not null"`
	IP        string
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt *time.Time
	Metadata  datatypes.JSON
}

func (AuthSession) TableName() string { return "auth_sessions" }
