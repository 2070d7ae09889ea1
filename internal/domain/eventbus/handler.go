package eventbus

import (
	"mallguide-server-go/internal/platform/logging"
)

// AuditHandler writes every lifecycle event to the log.
type AuditHandler struct {
	logger *logging.Logger
}

func NewAuditHandler(logger *logging.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

// Attach subscribes the handler to the directory, admin and auth topics.
func (h *AuditHandler) Attach(bus *Bus) error {
	if err := bus.Subscribe(EventStoreCreated, h.onStoreCreated); err != nil {
		return err
	}
	if err := bus.Subscribe(EventStoreDeleted, h.onStoreDeleted); err != nil {
		return err
	}
	if err := bus.Subscribe(EventAdminBroadcast, h.onAdminBroadcast); err != nil {
		return err
	}
	return bus.Subscribe(EventSessionRevoked, h.onSessionRevoked)
}

func (h *AuditHandler) onStoreCreated(data StoreEventData) {
	fields := map[string]any{"id": data.StoreID}
	if data.Store != nil {
		fields["category"] = data.Store.Category
	}
	h.logger.InfoTag("Directory", "store created", fields)
}

func (h *AuditHandler) onStoreDeleted(data StoreEventData) {
	h.logger.InfoTag("Directory", "store deleted", map[string]any{"id": data.StoreID})
}

func (h *AuditHandler) onAdminBroadcast(data AdminBroadcastData) {
	h.logger.InfoTag("Notify", "admin broadcast", map[string]any{"origin": data.Origin, "length": len(data.Message)})
}

func (h *AuditHandler) onSessionRevoked(data SessionRevokedData) {
	h.logger.InfoTag("Auth", "admin session revoked", map[string]any{"sid": data.SessionID, "reason": data.Reason})
}
