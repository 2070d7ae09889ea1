package observability

import (
	"context"
	"log/slog"
	"sync"
)

// Config toggles span and metric emission.
type Config struct {
	Enabled bool
}

// ShutdownFunc tears down whatever Setup installed.
type ShutdownFunc func(context.Context) error

var (
	mu     sync.RWMutex
	sink   *slog.Logger
	active Config
)

func current() (*slog.Logger, Config) {
	mu.RLock()
	defer mu.RUnlock()
	return sink, active
}

// Setup installs logger as the sink for spans and metrics. Nothing is
// emitted while cfg.Enabled is false.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	mu.Lock()
	sink = logger
	active = cfg
	mu.Unlock()

	if logger != nil {
		state := "disabled"
		if cfg.Enabled {
			state = "enabled"
		}
		logger.InfoContext(ctx, "[Observability] hooks "+state)
	}

	return func(context.Context) error {
		mu.Lock()
		sink = nil
		active = Config{}
		mu.Unlock()
		return nil
	}, nil
}
