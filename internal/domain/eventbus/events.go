package eventbus

import (
	"mallguide-server-go/internal/domain/directory/aggregate"
)

const (
	// EventStoreCreated carries a StoreEventData after a successful create.
	EventStoreCreated = "store:created"
	// EventStoreDeleted carries a StoreEventData after every completed delete.
	EventStoreDeleted = "store:deleted"
	// EventAdminBroadcast carries an AdminBroadcastData pushed over HTTP.
	EventAdminBroadcast = "admin:broadcast"
	// EventSessionRevoked carries a SessionRevokedData when an admin signs out.
	EventSessionRevoked = "auth:session-revoked"
)

type StoreEventData struct {
	StoreID string           `json:"id"`
	Store   *aggregate.Store `json:"store,omitempty"`
}

type AdminBroadcastData struct {
	Message string `json:"message"`
	Origin  string `json:"origin,omitempty"`
}

type SessionRevokedData struct {
	SessionID string `json:"sid"`
	Reason    string `json:"reason,omitempty"`
}
