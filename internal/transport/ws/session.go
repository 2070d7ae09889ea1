package ws

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"mallguide-server-go/internal/domain/notify"
	"mallguide-server-go/internal/platform/logging"
)

const (
	defaultOutboxSize   = 32
	defaultWriteTimeout = 5 * time.Second
)

// SessionOptions tunes a single admin session.
type SessionOptions struct {
	OutboxSize   int
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// Session is one admin websocket client. It implements notify.Session:
// events are queued on a bounded outbox and written by a dedicated goroutine.
type Session struct {
	id     string
	conn   *Connection
	hub    *notify.Hub
	logger *logging.Logger

	outbox       chan notify.Event
	writeTimeout time.Duration
	pingInterval time.Duration

	ctx    context.Context
	cancel context.CancelCauseFunc

	closed     atomic.Bool
	writerDone chan struct{}
	startOnce  sync.Once
}

// NewSession constructs a managed websocket session. Nothing is written
// until Run starts the writer.
func NewSession(parent context.Context, conn *Connection, hub *notify.Hub, logger *logging.Logger, opts SessionOptions) *Session {
	size := opts.OutboxSize
	if size <= 0 {
		size = defaultOutboxSize
	}
	timeout := opts.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	ctx, cancel := context.WithCancelCause(parent)
	return &Session{
		id:           conn.ID(),
		conn:         conn,
		hub:          hub,
		logger:       logger,
		outbox:       make(chan notify.Event, size),
		writeTimeout: timeout,
		pingInterval: opts.PingInterval,
		ctx:          ctx,
		cancel:       cancel,
		writerDone:   make(chan struct{}),
	}
}

// Context returns the session context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// ID exposes the session identifier.
func (s *Session) ID() string {
	return s.id
}

// IsStale lets the hub sweep reap clients that stopped answering.
func (s *Session) IsStale(timeout time.Duration) bool {
	return s.conn.IsStale(timeout)
}

// Deliver queues event without blocking.
func (s *Session) Deliver(event notify.Event) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.outbox <- event:
		return nil
	default:
		return ErrOutboxFull
	}
}

// Run drives the session until the client goes away or Close is called.
// The session is removed from the hub before onDone runs.
func (s *Session) Run(onDone func(error)) {
	s.startWriter()

	runErr := s.readLoop()
	if s.closed.Load() {
		runErr = context.Cause(s.ctx)
	}
	s.Close(runErr)
	s.hub.Disconnect(s.id)
	<-s.writerDone

	if onDone != nil {
		onDone(runErr)
	}
}

func (s *Session) startWriter() {
	s.startOnce.Do(func() {
		if s.pingInterval > 0 {
			_ = s.conn.ExtendReadDeadline(2 * s.pingInterval)
			s.conn.OnPong(func() { _ = s.conn.ExtendReadDeadline(2 * s.pingInterval) })
		}
		go s.writeLoop()
	})
}

func (s *Session) writeLoop() {
	defer close(s.writerDone)

	var pings <-chan time.Time
	if s.pingInterval > 0 {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-s.outbox:
			payload, err := EncodeEvent(event)
			if err != nil {
				s.logger.ErrorTag("WebSocket", "session %s: encode %s: %v", s.id, event.Kind, err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload, s.writeTimeout); err != nil {
				s.Close(err)
				return
			}
		case <-pings:
			if err := s.conn.Ping(s.writeTimeout); err != nil {
				s.Close(err)
				return
			}
		}
	}
}

func (s *Session) readLoop() error {
	for {
		messageType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}

		frame, err := DecodeFrame(payload)
		if err != nil {
			s.logger.WarnTag("WebSocket", "session %s: %v", s.id, err)
			continue
		}
		switch frame.Event {
		case EventAdminAction:
			if _, err := s.hub.OnAdminMessage(s.id, frame.Message()); err != nil {
				s.logger.WarnTag("WebSocket", "session %s: admin_action rejected: %v", s.id, err)
			}
		default:
			s.logger.DebugTag("WebSocket", "session %s: ignoring event %q", s.id, frame.Event)
		}
	}
}

// Close stops the writer and closes the socket. Queued events are
// abandoned. Only the first call has any effect.
func (s *Session) Close(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel(reason)

	code, text := closeCode(reason)
	if err := s.conn.CloseWithCode(code, text, s.writeTimeout); err != nil {
		s.logger.DebugTag("WebSocket", "session %s close: %v", s.id, err)
	}
}

func closeCode(reason error) (int, string) {
	switch {
	case stderrors.Is(reason, notify.ErrNotAuthenticated):
		return websocket.ClosePolicyViolation, "not authenticated"
	case stderrors.Is(reason, notify.ErrSessionRevoked):
		return websocket.ClosePolicyViolation, "signed out"
	case stderrors.Is(reason, notify.ErrSessionExpired):
		return websocket.ClosePolicyViolation, "session expired"
	case stderrors.Is(reason, notify.ErrSessionIdle):
		return websocket.CloseNormalClosure, "idle timeout"
	case stderrors.Is(reason, notify.ErrHubClosed), stderrors.Is(reason, ErrSessionShutdown):
		return websocket.CloseGoingAway, "server shutting down"
	default:
		return websocket.CloseNormalClosure, ""
	}
}
