// Package notify fans lifecycle and admin events out to connected admin
// sessions.
package notify

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mallguide-server-go/internal/domain/eventbus"
	"mallguide-server-go/internal/platform/errors"
	"mallguide-server-go/internal/platform/logging"
	"mallguide-server-go/internal/platform/observability"
)

// State is a session's position in the hub lifecycle.
type State int

const (
	StateUnknown State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is a connected admin client. Deliver must not block: it either
// queues the event or returns an error.
type Session interface {
	ID() string
	Deliver(Event) error
	Close(reason error)
}

var (
	ErrSessionExists    = errors.New(errors.KindValidation, "notify.connect", "session already registered")
	ErrNotAuthenticated = errors.New(errors.KindAuth, "notify.connect", "session is not authenticated")
	ErrHubClosed        = errors.New(errors.KindDelivery, "notify.close", "hub is shutting down")
	ErrSessionRevoked   = errors.New(errors.KindAuth, "notify.revoke", "admin signed out")
	ErrSessionExpired   = errors.New(errors.KindAuth, "notify.sweep", "admin session expired")
	ErrSessionIdle      = errors.New(errors.KindDelivery, "notify.sweep", "session idle")
)

// Grant is the admission decision for a session. AuthSessionID ties the
// session to a login so Revoke can close it; a zero ExpiresAt never expires.
type Grant struct {
	Authenticated bool
	AuthSessionID string
	ExpiresAt     time.Time
}

// Idler is implemented by sessions that track their last activity.
type Idler interface {
	IsStale(timeout time.Duration) bool
}

type entry struct {
	session   Session
	state     State
	authID    string
	expiresAt time.Time
}

// Option configures a Hub.
type Option func(*Hub)

// WithIdleTimeout makes Sweep close sessions idle for longer than d.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) { h.idleTimeout = d }
}

// Stats are cumulative delivery counters.
type Stats struct {
	Sessions  int
	Delivered uint64
	Dropped   uint64
}

type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	closed   bool

	logger      *logging.Logger
	idleTimeout time.Duration
	delivered   atomic.Uint64
	dropped     atomic.Uint64
}

func NewHub(logger *logging.Logger, opts ...Option) *Hub {
	h := &Hub{
		sessions: make(map[string]*entry),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds session in the Connecting state. It receives nothing until
// Activate opens it.
func (h *Hub) Register(session Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if _, ok := h.sessions[session.ID()]; ok {
		return ErrSessionExists
	}
	h.sessions[session.ID()] = &entry{session: session, state: StateConnecting}
	return nil
}

// Activate opens a Connecting session when the grant is authenticated. An
// unauthenticated session is closed and forgotten.
func (h *Hub) Activate(id string, grant Grant) error {
	h.mu.Lock()
	e, ok := h.sessions[id]
	if !ok || e.state != StateConnecting {
		h.mu.Unlock()
		return errors.Newf(errors.KindValidation, "notify.activate", "session %q is not connecting", id)
	}
	if !grant.Authenticated {
		delete(h.sessions, id)
		h.mu.Unlock()
		e.session.Close(ErrNotAuthenticated)
		h.logger.WarnTag("Notify", "session %s refused: not authenticated", id)
		return ErrNotAuthenticated
	}
	e.state = StateOpen
	e.authID = grant.AuthSessionID
	e.expiresAt = grant.ExpiresAt
	count := len(h.sessions)
	h.mu.Unlock()

	h.logger.InfoTag("Notify", "session %s open (%d connected)", id, count)
	return nil
}

// Connect registers and activates session in one step.
func (h *Hub) Connect(session Session, grant Grant) error {
	if err := h.Register(session); err != nil {
		session.Close(err)
		return err
	}
	return h.Activate(session.ID(), grant)
}

// Disconnect removes the session. Unknown ids are ignored.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	e, ok := h.sessions[id]
	if ok {
		e.state = StateClosed
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	if ok {
		h.logger.InfoTag("Notify", "session %s closed", id)
	}
}

// Revoke closes every session bound to authSessionID and returns how many
// were closed.
func (h *Hub) Revoke(authSessionID string) int {
	if authSessionID == "" {
		return 0
	}
	closed := h.evict(func(e *entry) error {
		if e.authID == authSessionID {
			return ErrSessionRevoked
		}
		return nil
	})
	if closed > 0 {
		h.logger.InfoTag("Notify", "closed %d session(s) of signed out admin %s", closed, authSessionID)
	}
	return closed
}

// Sweep closes sessions whose login expired before now and, with an idle
// timeout set, sessions that have gone quiet.
func (h *Hub) Sweep(now time.Time) int {
	closed := h.evict(func(e *entry) error {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			return ErrSessionExpired
		}
		if idler, ok := e.session.(Idler); ok && h.idleTimeout > 0 && idler.IsStale(h.idleTimeout) {
			return ErrSessionIdle
		}
		return nil
	})
	if closed > 0 {
		h.logger.InfoTag("Notify", "sweep closed %d session(s)", closed)
	}
	return closed
}

// Run sweeps every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Sweep(now)
		}
	}
}

// evict removes every Open session for which reasonFor returns an error and
// closes it with that error.
func (h *Hub) evict(reasonFor func(*entry) error) int {
	type victim struct {
		session Session
		reason  error
	}
	var victims []victim

	h.mu.Lock()
	for id, e := range h.sessions {
		if e.state != StateOpen {
			continue
		}
		if reason := reasonFor(e); reason != nil {
			e.state = StateClosed
			delete(h.sessions, id)
			victims = append(victims, victim{session: e.session, reason: reason})
		}
	}
	h.mu.Unlock()

	for _, v := range victims {
		v.session.Close(v.reason)
	}
	return len(victims)
}

// State reports the lifecycle state of id. Removed sessions report Closed.
func (h *Hub) State(id string) State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if e, ok := h.sessions[id]; ok {
		return e.state
	}
	return StateClosed
}

// Broadcast queues event on every Open session and returns how many
// accepted it. Sessions whose outbox is full miss the event.
func (h *Hub) Broadcast(event Event) int {
	h.mu.RLock()
	targets := make([]Session, 0, len(h.sessions))
	for _, e := range h.sessions {
		if e.state == StateOpen {
			targets = append(targets, e.session)
		}
	}
	h.mu.RUnlock()

	queued := 0
	for _, s := range targets {
		if err := s.Deliver(event); err != nil {
			h.dropped.Add(1)
			derr := errors.Wrap(errors.KindDelivery, "notify.broadcast", "event dropped", err)
			h.logger.WarnTag("Notify", "%s to session %s: %v", event.Kind, s.ID(), derr)
			continue
		}
		queued++
	}
	h.delivered.Add(uint64(queued))

	observability.RecordMetric(context.Background(), "notify.broadcast.queued", float64(queued),
		map[string]string{"event": string(event.Kind)})
	return queued
}

// OnAdminMessage rebroadcasts a message sent by an Open session.
func (h *Hub) OnAdminMessage(sessionID, message string) (int, error) {
	const op = "notify.admin_message"
	if h.State(sessionID) != StateOpen {
		return 0, errors.Newf(errors.KindValidation, op, "session %q is not open", sessionID)
	}
	if strings.TrimSpace(message) == "" {
		return 0, errors.New(errors.KindValidation, op, "Notification message cannot be empty")
	}
	return h.Broadcast(AdminBroadcast(message)), nil
}

// CloseAll closes every session and refuses new ones.
func (h *Hub) CloseAll(reason error) {
	if reason == nil {
		reason = ErrHubClosed
	}
	h.mu.Lock()
	h.closed = true
	sessions := make([]Session, 0, len(h.sessions))
	for id, e := range h.sessions {
		e.state = StateClosed
		sessions = append(sessions, e.session)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close(reason)
	}
}

// Count returns the number of Open sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, e := range h.sessions {
		if e.state == StateOpen {
			n++
		}
	}
	return n
}

func (h *Hub) Stats() Stats {
	return Stats{
		Sessions:  h.Count(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}

// Attach subscribes the hub to the directory, admin and auth topics on bus.
func (h *Hub) Attach(bus *eventbus.Bus) error {
	if err := bus.Subscribe(eventbus.EventStoreCreated, func(d eventbus.StoreEventData) {
		if d.Store != nil {
			h.Broadcast(StoreCreated(d.Store))
			return
		}
		h.Broadcast(Event{Kind: KindStoreCreated, RecordID: d.StoreID})
	}); err != nil {
		return err
	}
	if err := bus.Subscribe(eventbus.EventStoreDeleted, func(d eventbus.StoreEventData) {
		h.Broadcast(StoreDeleted(d.StoreID))
	}); err != nil {
		return err
	}
	if err := bus.Subscribe(eventbus.EventAdminBroadcast, func(d eventbus.AdminBroadcastData) {
		h.Broadcast(AdminBroadcast(d.Message))
	}); err != nil {
		return err
	}
	return bus.Subscribe(eventbus.EventSessionRevoked, func(d eventbus.SessionRevokedData) {
		h.Revoke(d.SessionID)
	})
}
