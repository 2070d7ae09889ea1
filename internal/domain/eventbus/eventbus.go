package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus delivers events synchronously in publish order. Handlers run on the
// publisher's goroutine and must not publish re-entrantly.
type Bus struct {
	bus evbus.Bus
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

func (b *Bus) Publish(topic string, args ...interface{}) {
	b.bus.Publish(topic, args...)
}

// Subscribe registers fn, which must be a func whose parameters match the
// arguments published on topic.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

func (b *Bus) HasCallback(topic string) bool {
	return b.bus.HasCallback(topic)
}
