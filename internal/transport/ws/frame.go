package ws

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"mallguide-server-go/internal/domain/notify"
)

// EventAdminAction is the only event clients send.
const EventAdminAction = "admin_action"

// Frame is the envelope of every text message on the admin channel.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Message returns data.message, or "" when it is absent or not a string.
func (f Frame) Message() string {
	msg, _ := f.Data["message"].(string)
	return msg
}

// EncodeEvent renders a hub event as a wire frame.
func EncodeEvent(event notify.Event) ([]byte, error) {
	return sonic.Marshal(Frame{Event: string(event.Kind), Data: event.Data()})
}

// DecodeFrame parses a client frame.
func DecodeFrame(payload []byte) (Frame, error) {
	var frame Frame
	if err := sonic.Unmarshal(payload, &frame); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	frame.Event = strings.TrimSpace(frame.Event)
	if frame.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: missing event")
	}
	return frame, nil
}
