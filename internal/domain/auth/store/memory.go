package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mallguide-server-go/internal/domain/auth/model"
)

type memoryStore struct {
	mu       sync.RWMutex
	items    map[string]model.Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory builds an in-process session store with a background sweeper.
func NewMemory(cfg Config) Store {
	gc := 5 * time.Minute
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		gc = cfg.Memory.GCInterval
	}
	s := &memoryStore{
		items: make(map[string]model.Session),
		ttl:   cfg.TTL,
		stop:  make(chan struct{}),
	}
	go s.sweep(gc)
	return s
}

func (s *memoryStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Save(_ context.Context, session model.Session) error {
	if session.SessionID == "" {
		return fmt.Errorf("session id required")
	}
	applyTTL(&session, s.ttl)
	s.mu.Lock()
	s.items[session.SessionID] = session
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, sessionID string) (model.Session, error) {
	s.mu.RLock()
	session, ok := s.items[sessionID]
	s.mu.RUnlock()
	if !ok || session.Expired(time.Now()) {
		return model.Session{}, ErrNotFound
	}
	return session, nil
}

func (s *memoryStore) Remove(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.items, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]string, error) {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.items))
	for id, session := range s.items {
		if !session.Expired(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) error {
	now := time.Now()
	s.mu.Lock()
	for id, session := range s.items {
		if session.Expired(now) {
			delete(s.items, id)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Stats(ctx context.Context) (map[string]any, error) {
	active, _ := s.List(ctx)
	s.mu.RLock()
	total := len(s.items)
	s.mu.RUnlock()
	return map[string]any{
		"type":        DriverMemory,
		"total":       total,
		"active":      len(active),
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *memoryStore) Close(context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
