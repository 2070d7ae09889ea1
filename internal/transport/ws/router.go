package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mallguide-server-go/internal/domain/auth"
	"mallguide-server-go/internal/domain/notify"
	"mallguide-server-go/internal/platform/logging"
	"mallguide-server-go/internal/platform/observability"
)

// Authenticator decides whether a websocket client may join the hub and
// which login it belongs to.
type Authenticator interface {
	Admit(ctx context.Context, token string) auth.Admission
}

// Router upgrades HTTP requests on the admin path to hub sessions.
type Router struct {
	hub      *notify.Hub
	gate     Authenticator
	logger   *logging.Logger
	upgrader *websocket.Upgrader
	session  SessionOptions
}

// RouterOptions configures the websocket router.
type RouterOptions struct {
	HandshakeTimeout time.Duration
	CheckOrigin      func(r *http.Request) bool
	Session          SessionOptions
}

// NewRouter constructs a websocket router.
func NewRouter(hub *notify.Hub, gate Authenticator, logger *logging.Logger, opts RouterOptions) *Router {
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	upgrader := &websocket.Upgrader{
		HandshakeTimeout: timeout,
		CheckOrigin:      opts.CheckOrigin,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	return &Router{
		hub:      hub,
		gate:     gate,
		logger:   logger,
		upgrader: upgrader,
		session:  opts.Session,
	}
}

// Handle upgrades the connection and hands the session to the hub. A client
// without a valid token is upgraded and then closed with a policy-violation
// frame so browsers can see why.
func (r *Router) Handle(w http.ResponseWriter, req *http.Request) {
	spanCtx, spanEnd := observability.StartSpan(req.Context(), "transport.websocket", "handle")
	var spanErr error
	defer func() {
		spanEnd(spanErr)
	}()

	grant := notify.Grant{Authenticated: true}
	if r.gate != nil {
		adm := r.gate.Admit(spanCtx, auth.TokenFromRequest(req))
		grant = notify.Grant{
			Authenticated: adm.Allowed,
			AuthSessionID: adm.SessionID,
			ExpiresAt:     adm.ExpiresAt,
		}
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		spanErr = err
		observability.RecordMetric(spanCtx, "websocket.upgrade.error", 1,
			map[string]string{"component": "transport.websocket"})
		r.logger.ErrorTag("WebSocket", "upgrade failed: %v", err)
		return
	}
	observability.RecordMetric(spanCtx, "websocket.upgrade.success", 1,
		map[string]string{"component": "transport.websocket"})

	id := uuid.NewString()
	wsConn := NewConnection(id, conn)
	session := NewSession(context.WithoutCancel(spanCtx), wsConn, r.hub, r.logger, r.session)
	r.logger.InfoTag("WebSocket", "admin client %s connected from %s", id, req.RemoteAddr)

	if err := r.hub.Connect(session, grant); err != nil {
		spanErr = err
		observability.RecordMetric(spanCtx, "websocket.connection.rejected", 1,
			map[string]string{"component": "transport.websocket"})
		return
	}

	observability.RecordMetric(spanCtx, "websocket.connection.opened", 1,
		map[string]string{"component": "transport.websocket"})

	go session.Run(func(runErr error) {
		if runErr != nil && runErr != ErrSessionShutdown {
			r.logger.WarnTag("WebSocket", "session %s ended: %v", id, runErr)
		}
		observability.RecordMetric(session.Context(), "websocket.connection.closed", 1,
			map[string]string{"component": "transport.websocket"})
	})
}
