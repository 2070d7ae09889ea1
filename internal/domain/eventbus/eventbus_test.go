package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/platform/logging"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := New()
	var got []string

	require.NoError(t, bus.Subscribe(EventStoreCreated, func(d StoreEventData) { got = append(got, "created:"+d.StoreID) }))
	require.NoError(t, bus.Subscribe(EventStoreDeleted, func(d StoreEventData) { got = append(got, "deleted:"+d.StoreID) }))

	bus.Publish(EventStoreCreated, StoreEventData{StoreID: "A"})
	bus.Publish(EventStoreDeleted, StoreEventData{StoreID: "A"})
	bus.Publish(EventStoreCreated, StoreEventData{StoreID: "B"})

	assert.Equal(t, []string{"created:A", "deleted:A", "created:B"}, got)
	assert.True(t, bus.HasCallback(EventStoreCreated))
	assert.False(t, bus.HasCallback(EventAdminBroadcast))
}

func TestAuditHandlerLogs(t *testing.T) {
	var out bytes.Buffer
	logger, err := logging.New(logging.Config{Level: "info", Console: &out, NoColor: true})
	require.NoError(t, err)

	bus := New()
	require.NoError(t, NewAuditHandler(logger).Attach(bus))

	bus.Publish(EventStoreCreated, StoreEventData{StoreID: "Acme_Tools", Store: &aggregate.Store{ID: "Acme_Tools", Category: "DIY"}})
	bus.Publish(EventStoreDeleted, StoreEventData{StoreID: "Acme_Tools"})
	bus.Publish(EventAdminBroadcast, AdminBroadcastData{Message: "hi", Origin: "http"})
	bus.Publish(EventSessionRevoked, SessionRevokedData{SessionID: "sid-1", Reason: "logout"})

	assert.Contains(t, out.String(), "[Directory] store created")
	assert.Contains(t, out.String(), "[Directory] store deleted")
	assert.Contains(t, out.String(), "[Notify] admin broadcast")
	assert.Contains(t, out.String(), "[Auth] admin session revoked")
	assert.Contains(t, out.String(), "id=Acme_Tools")
	assert.Contains(t, out.String(), "category=DIY")
	assert.Equal(t, 1, strings.Count(out.String(), "store created"))
}
