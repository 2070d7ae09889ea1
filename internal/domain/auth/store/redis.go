package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mallguide-server-go/internal/domain/auth/model"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis keeps one key per session and lets Redis expire them.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil || cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "mallguide:session"
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &redisStore{client: client, ttl: cfg.TTL, prefix: prefix}, nil
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}

func (s *redisStore) Save(ctx context.Context, session model.Session) error {
	if session.SessionID == "" {
		return fmt.Errorf("session id required")
	}
	applyTTL(&session, s.ttl)
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	var expiry time.Duration
	if session.ExpiresAt != nil {
		expiry = time.Until(*session.ExpiresAt)
		if expiry <= 0 {
			return nil
		}
	}
	return s.client.Set(ctx, s.key(session.SessionID), data, expiry).Err()
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (model.Session, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	var session model.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return model.Session{}, err
	}
	if session.Expired(time.Now()) {
		_ = s.Remove(ctx, sessionID)
		return model.Session{}, ErrNotFound
	}
	return session, nil
}

func (s *redisStore) Remove(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		ids    []string
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, s.prefix))
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}

// CleanupExpired is a no-op: keys carry their own TTL.
func (s *redisStore) CleanupExpired(context.Context) error {
	return nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":        DriverRedis,
		"total":       len(ids),
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
