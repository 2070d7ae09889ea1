package notify

import (
	"strings"

	"mallguide-server-go/internal/domain/directory/aggregate"
)

// Kind is the wire name of an event.
type Kind string

const (
	KindStoreCreated   Kind = "store_created"
	KindStoreDeleted   Kind = "store-deleted"
	KindAdminBroadcast Kind = "admin_response"
)

// Event is what the hub fans out to sessions.
type Event struct {
	Kind     Kind
	RecordID string
	Store    *aggregate.Store
	Message  string
}

func StoreCreated(store *aggregate.Store) Event {
	return Event{Kind: KindStoreCreated, RecordID: store.ID, Store: store.Clone()}
}

func StoreDeleted(id string) Event {
	return Event{Kind: KindStoreDeleted, RecordID: id}
}

func AdminBroadcast(message string) Event {
	return Event{Kind: KindAdminBroadcast, Message: strings.TrimSpace(message)}
}

// Data is the event payload as sent to clients.
func (e Event) Data() map[string]any {
	switch e.Kind {
	case KindStoreCreated:
		data := map[string]any{"id": e.RecordID}
		if e.Store != nil {
			data["store"] = e.Store
		}
		return data
	case KindStoreDeleted:
		return map[string]any{"id": e.RecordID}
	default:
		return map[string]any{"message": e.Message}
	}
}
