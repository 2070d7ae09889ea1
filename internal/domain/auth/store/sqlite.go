package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mallguide-server-go/internal/domain/auth/model"
	"mallguide-server-go/internal/platform/storage"
)

type sqliteStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSQLite keeps sessions in the auth_sessions table.
func NewSQLite(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite session store requires a database handle")
	}
	return &sqliteStore{db: db, ttl: cfg.TTL}, nil
}

func (s *sqliteStore) Save(ctx context.Context, session model.Session) error {
	if session.SessionID == "" {
		return fmt.Errorf("session id required")
	}
	applyTTL(&session, s.ttl)
	var meta datatypes.JSON
	if len(session.Metadata) > 0 {
		raw, err := json.Marshal(session.Metadata)
		if err != nil {
			return err
		}
		meta = raw
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", session.SessionID).Delete(&storage.AuthSession{}).Error; err != nil {
			return err
		}
		return tx.Create(&storage.AuthSession{
			SessionID: session.SessionID,
			Username:  session.Username,
			IP:        session.IP,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			Metadata:  meta,
		}).Error
	})
}

func (s *sqliteStore) Get(ctx context.Context, sessionID string) (model.Session, error) {
	var row storage.AuthSession
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	session := model.Session{
		SessionID: row.SessionID,
		Username:  row.Username,
		IP:        row.IP,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &session.Metadata)
	}
	if session.Expired(time.Now()) {
		return model.Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sqliteStore) Remove(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&storage.AuthSession{}).Error
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	var rows []storage.AuthSession
	if err := s.db.WithContext(ctx).Select("session_id", "expires_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.ExpiresAt == nil || now.Before(*row.ExpiresAt) {
			ids = append(ids, row.SessionID)
		}
	}
	return ids, nil
}

func (s *sqliteStore) CleanupExpired(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&storage.AuthSession{}).
		Error
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.AuthSession{}).Count(&total).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":        DriverSQLite,
		"total":       total,
		"ttl_seconds": int(s.ttl.Seconds()),
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}
