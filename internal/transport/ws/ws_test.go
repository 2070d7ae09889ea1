package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mallguide-server-go/internal/domain/auth"
	"mallguide-server-go/internal/domain/auth/store"
	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/eventbus"
	"mallguide-server-go/internal/domain/notify"
)

type staticGate struct{ token string }

func (g staticGate) Admit(_ context.Context, token string) auth.Admission {
	return auth.Admission{Allowed: token == g.token}
}

func newTestServer(t *testing.T) (*notify.Hub, string) {
	t.Helper()
	hub := notify.NewHub(nil)
	return hub, serve(t, hub, staticGate{token: "secret"})
}

func serve(t *testing.T, hub *notify.Hub, gate Authenticator) string {
	t.Helper()
	router := NewRouter(hub, gate, nil, RouterOptions{
		Session: SessionOptions{OutboxSize: 8, WriteTimeout: time.Second},
	})
	srv := httptest.NewServer(http.HandlerFunc(router.Handle))
	t.Cleanup(func() {
		hub.CloseAll(nil)
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/admin"
}

// newGateServer wires a real gate and hub through the event bus.
func newGateServer(t *testing.T) (*notify.Hub, *auth.Gate, string) {
	t.Helper()
	bus := eventbus.New()
	hub := notify.NewHub(nil)
	require.NoError(t, hub.Attach(bus))

	gate, err := auth.NewGate(auth.Options{
		Store:    store.NewMemory(store.Config{TTL: time.Hour}),
		Events:   bus,
		Username: "1",
		Password: "1",
		Secret:   "test-secret",
		TokenTTL: time.Hour,
		Required: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gate.Close(context.Background()) })

	return hub, gate, serve(t, hub, gate)
}

func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, code), "got %v", err)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	frame, err := DecodeFrame(payload)
	require.NoError(t, err)
	return frame
}

func waitForSessions(t *testing.T, hub *notify.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestAuthenticatedClientReceivesBroadcasts(t *testing.T) {
	hub, url := newTestServer(t)
	conn := dial(t, url+"?token=secret")
	waitForSessions(t, hub, 1)

	assert.Equal(t, 1, hub.Broadcast(notify.AdminBroadcast("mall closes at 9")))

	frame := readFrame(t, conn)
	assert.Equal(t, "admin_response", frame.Event)
	assert.Equal(t, "mall closes at 9", frame.Message())
}

func TestUnauthenticatedClientIsClosed(t *testing.T) {
	hub, url := newTestServer(t)
	conn := dial(t, url)

	expectClose(t, conn, websocket.ClosePolicyViolation)
	assert.Equal(t, 0, hub.Count())
}

func TestLogoutClosesAdminSocket(t *testing.T) {
	ctx := context.Background()
	hub, gate, url := newGateServer(t)

	res, ok, err := gate.Login(ctx, "1", "1", "127.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)

	conn := dial(t, url+"?token="+res.Token)
	other := dial(t, url+"?token="+res.Token)
	waitForSessions(t, hub, 2)

	require.NoError(t, gate.Logout(ctx, res.Token))

	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, 0, hub.Broadcast(notify.AdminBroadcast("after logout")))
	expectClose(t, conn, websocket.ClosePolicyViolation)
	expectClose(t, other, websocket.ClosePolicyViolation)
}

func TestLogoutLeavesOtherAdminsOpen(t *testing.T) {
	ctx := context.Background()
	hub, gate, url := newGateServer(t)

	first, _, err := gate.Login(ctx, "1", "1", "127.0.0.1")
	require.NoError(t, err)
	second, _, err := gate.Login(ctx, "1", "1", "127.0.0.2")
	require.NoError(t, err)

	_ = dial(t, url+"?token="+first.Token)
	kept := dial(t, url+"?token="+second.Token)
	waitForSessions(t, hub, 2)

	require.NoError(t, gate.Logout(ctx, first.Token))
	waitForSessions(t, hub, 1)

	assert.Equal(t, 1, hub.Broadcast(notify.AdminBroadcast("still here")))
	assert.Equal(t, "still here", readFrame(t, kept).Message())
}

func TestExpiredLoginIsSwept(t *testing.T) {
	ctx := context.Background()
	hub, gate, url := newGateServer(t)

	res, _, err := gate.Login(ctx, "1", "1", "127.0.0.1")
	require.NoError(t, err)
	conn := dial(t, url+"?token="+res.Token)
	waitForSessions(t, hub, 1)

	assert.Equal(t, 0, hub.Sweep(time.Now()))
	assert.Equal(t, 1, hub.Sweep(res.ExpiresAt.Add(time.Second)))
	assert.Equal(t, 0, hub.Count())
	expectClose(t, conn, websocket.ClosePolicyViolation)
}

func TestAdminActionIsRebroadcast(t *testing.T) {
	hub, url := newTestServer(t)
	sender := dial(t, url+"?token=secret")
	other := dial(t, url+"?token=secret")
	waitForSessions(t, hub, 2)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"admin_action","data":{"message":"flash sale"}}`)))

	for _, conn := range []*websocket.Conn{sender, other} {
		frame := readFrame(t, conn)
		assert.Equal(t, "admin_response", frame.Event)
		assert.Equal(t, "flash sale", frame.Message())
	}
}

func TestEmptyAdminActionIsIgnored(t *testing.T) {
	hub, url := newTestServer(t)
	conn := dial(t, url+"?token=secret")
	waitForSessions(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"admin_action","data":{"message":"  "}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"admin_action","data":{"message":"next"}}`)))

	frame := readFrame(t, conn)
	assert.Equal(t, "next", frame.Message())
}

func TestClientDisconnectLeavesHub(t *testing.T) {
	hub, url := newTestServer(t)
	conn := dial(t, url+"?token=secret")
	waitForSessions(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	waitForSessions(t, hub, 0)
	assert.Equal(t, 0, hub.Broadcast(notify.StoreDeleted("Acme_Tools")))
}

func TestCloseAllSendsGoingAway(t *testing.T) {
	hub, url := newTestServer(t)
	conn := dial(t, url+"?token=secret")
	waitForSessions(t, hub, 1)

	hub.CloseAll(nil)

	expectClose(t, conn, websocket.CloseGoingAway)
}

func TestEncodeStoreCreated(t *testing.T) {
	store := &aggregate.Store{ID: "Acme_Tools", Name: "Acme Tools", Category: "DIY"}
	payload, err := EncodeEvent(notify.StoreCreated(store))
	require.NoError(t, err)

	frame, err := DecodeFrame(payload)
	require.NoError(t, err)
	assert.Equal(t, "store_created", frame.Event)
	assert.Equal(t, "Acme_Tools", frame.Data["id"])
	nested, ok := frame.Data["store"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Acme Tools", nested["name"])
}

func TestDecodeFrameRejectsMissingEvent(t *testing.T) {
	_, err := DecodeFrame([]byte(`{"data":{}}`))
	assert.Error(t, err)
}

func TestDeliverIsBoundedAndNonBlocking(t *testing.T) {
	s := &Session{outbox: make(chan notify.Event, 1)}
	require.NoError(t, s.Deliver(notify.AdminBroadcast("a")))
	assert.ErrorIs(t, s.Deliver(notify.AdminBroadcast("b")), ErrOutboxFull)
	s.closed.Store(true)
	assert.ErrorIs(t, s.Deliver(notify.AdminBroadcast("c")), ErrSessionClosed)
}

func TestIdleSessionIsReported(t *testing.T) {
	hub, url := newTestServer(t)
	_ = dial(t, url+"?token=secret")
	waitForSessions(t, hub, 1)

	assert.Equal(t, 0, hub.Sweep(time.Now()))

	idle := notify.NewHub(nil, notify.WithIdleTimeout(time.Nanosecond))
	idleURL := serve(t, idle, staticGate{token: "secret"})
	conn := dial(t, idleURL+"?token=secret")
	waitForSessions(t, idle, 1)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, idle.Sweep(time.Now()))
	expectClose(t, conn, websocket.CloseNormalClosure)
}
