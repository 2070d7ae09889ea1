package store

import (
	"context"
	"errors"
	"time"

	"mallguide-server-go/internal/domain/auth/model"
)

// ErrNotFound is returned by Get for absent or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store persists admin sessions.
type Store interface {
	Save(ctx context.Context, session model.Session) error
	Get(ctx context.Context, sessionID string) (model.Session, error)
	// Remove is a no-op for unknown ids.
	Remove(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
	CleanupExpired(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	Memory *MemoryConfig
}

type MemoryConfig struct {
	GCInterval time.Duration
}

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

func applyTTL(session *model.Session, ttl time.Duration) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.ExpiresAt == nil && ttl > 0 {
		exp := session.CreatedAt.Add(ttl)
		session.ExpiresAt = &exp
	}
}
