// Package auth guards the admin surface with static credentials and
// signed session tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"

	"mallguide-server-go/internal/domain/auth/model"
	"mallguide-server-go/internal/domain/auth/store"
	"mallguide-server-go/internal/domain/eventbus"
	"mallguide-server-go/internal/platform/errors"
	"mallguide-server-go/internal/platform/logging"
)

const (
	defaultCleanupInterval = 5 * time.Minute
	minCleanupInterval     = 30 * time.Second
)

// Publisher receives EventSessionRevoked when an admin signs out.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

type Options struct {
	Store           store.Store
	Events          Publisher
	Logger          *logging.Logger
	Username        string
	Password        string
	Secret          string
	TokenTTL        time.Duration
	CleanupInterval time.Duration
	// Required false lets every caller through, as the open admin panel did.
	Required bool
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// Admission is the outcome of checking a websocket client's token.
// SessionID is empty when the caller was let through without one.
type Admission struct {
	Allowed   bool
	SessionID string
	ExpiresAt time.Time
}

// Gate decides whether a caller may mutate the directory or join the admin
// channel.
type Gate struct {
	store    store.Store
	events   Publisher
	tokens   *SessionToken
	logger   *logging.Logger
	username string
	password string
	required bool

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

func NewGate(opts Options) (*Gate, error) {
	const op = "auth.new_gate"
	if opts.Store == nil {
		return nil, errors.New(errors.KindConfig, op, "session store is required")
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, errors.New(errors.KindConfig, op, "admin credentials are required")
	}
	if opts.Secret == "" {
		return nil, errors.New(errors.KindConfig, op, "token secret is required")
	}
	interval := opts.CleanupInterval
	switch {
	case interval <= 0:
		interval = defaultCleanupInterval
	case interval < minCleanupInterval:
		interval = minCleanupInterval
	}

	g := &Gate{
		store:           opts.Store,
		events:          opts.Events,
		tokens:          NewSessionToken(opts.Secret, opts.TokenTTL),
		logger:          opts.Logger,
		username:        opts.Username,
		password:        opts.Password,
		required:        opts.Required,
		cleanupInterval: interval,
		stop:            make(chan struct{}),
	}
	go g.cleanupLoop()
	return g, nil
}

// Required reports whether callers must present a token.
func (g *Gate) Required() bool {
	return g.required
}

func (g *Gate) cleanupLoop() {
	ticker := time.NewTicker(g.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := g.store.CleanupExpired(context.Background()); err != nil {
				g.logger.WarnTag("Auth", "session cleanup failed: %v", err)
			}
		case <-g.stop:
			return
		}
	}
}

// Login checks the static credentials. Wrong credentials return ok=false
// and a nil error.
func (g *Gate) Login(ctx context.Context, username, password, ip string) (*LoginResult, bool, error) {
	const op = "auth.login"
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !userOK || !passOK {
		g.logger.WarnTag("Auth", "login rejected for %q from %s", username, ip)
		return nil, false, nil
	}

	sessionID := uuid.NewString()
	token, expires, err := g.tokens.Issue(username, sessionID)
	if err != nil {
		return nil, false, errors.Wrap(errors.KindAuth, op, "failed to issue token", err)
	}
	session := model.Session{
		SessionID: sessionID,
		Username:  username,
		IP:        ip,
		CreatedAt: time.Now(),
		ExpiresAt: &expires,
	}
	if err := g.store.Save(ctx, session); err != nil {
		return nil, false, errors.Wrap(errors.KindStorage, op, "failed to save session", err)
	}

	g.logger.InfoTag("Auth", "admin %s signed in (session %s)", username, sessionID)
	return &LoginResult{Token: token, SessionID: sessionID, ExpiresAt: expires}, true, nil
}

// Logout forgets the session behind token. Unknown or invalid tokens are
// ignored.
func (g *Gate) Logout(ctx context.Context, token string) error {
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil
	}
	if err := g.store.Remove(ctx, claims.SessionID); err != nil {
		return errors.Wrap(errors.KindStorage, "auth.logout", "failed to remove session", err)
	}
	g.logger.InfoTag("Auth", "session %s signed out", claims.SessionID)
	if g.events != nil {
		g.events.Publish(eventbus.EventSessionRevoked, eventbus.SessionRevokedData{
			SessionID: claims.SessionID,
			Reason:    "logout",
		})
	}
	return nil
}

// Authenticated reports whether token is valid and its session is still
// stored.
func (g *Gate) Authenticated(ctx context.Context, token string) bool {
	_, ok := g.session(ctx, token)
	return ok
}

func (g *Gate) session(ctx context.Context, token string) (*Claims, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		g.logger.DebugTag("Auth", "token rejected: %v", err)
		return nil, false
	}
	if _, err := g.store.Get(ctx, claims.SessionID); err != nil {
		return nil, false
	}
	return claims, true
}

// Allow applies the Required switch on top of Authenticated.
func (g *Gate) Allow(ctx context.Context, token string) bool {
	if !g.required {
		return true
	}
	return g.Authenticated(ctx, token)
}

// Admit is Allow for long-lived clients: a valid token also binds the
// client to its session so a later logout or expiry can close it.
func (g *Gate) Admit(ctx context.Context, token string) Admission {
	claims, ok := g.session(ctx, token)
	if !ok {
		return Admission{Allowed: !g.required}
	}
	adm := Admission{Allowed: true, SessionID: claims.SessionID}
	if claims.ExpiresAt != nil {
		adm.ExpiresAt = claims.ExpiresAt.Time
	}
	return adm
}

// Stats reports the session store counters.
func (g *Gate) Stats(ctx context.Context) (map[string]any, error) {
	return g.store.Stats(ctx)
}

// Close stops the cleanup loop and closes the store.
func (g *Gate) Close(ctx context.Context) error {
	g.stopOnce.Do(func() { close(g.stop) })
	return g.store.Close(ctx)
}
