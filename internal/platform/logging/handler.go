package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m"
	colorDebug = "\x1b[36m"
	colorInfo  = "\x1b[32m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
)

// tagColors highlights tagged messages on the console.
var tagColors = map[string]string{
	"[Bootstrap]":     "\x1b[96m",
	"[HTTP]":          "\x1b[95m",
	"[WebSocket]":     "\x1b[92m",
	"[Directory]":     "\x1b[94m",
	"[Artifact]":      "\x1b[34m",
	"[Notify]":        "\x1b[35m",
	"[Auth]":          "\x1b[91m",
	"[Storage]":       "\x1b[97m",
	"[Observability]": "\x1b[90m",
}

// consoleHandler renders records as single coloured lines.
type consoleHandler struct {
	writer io.Writer
	level  slog.Level
	color  bool
	mu     sync.Mutex
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")
	msgColor, tagged := h.tagColor(r.Message)

	if h.color {
		b.WriteString(colorTime + "[" + timeStr + "]" + colorReset + " ")
		if tagged {
			b.WriteString(msgColor + r.Message + colorReset)
		} else {
			b.WriteString(levelColor(r.Level) + "[" + r.Level.String() + "]" + colorReset + " " + r.Message)
		}
	} else {
		b.WriteString("[" + timeStr + "] [" + r.Level.String() + "] " + r.Message)
	}

	if r.NumAttrs() > 0 {
		b.WriteString(" {")
		r.Attrs(func(a slog.Attr) bool {
			fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
			return true
		})
		b.WriteString(" }")
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *consoleHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *consoleHandler) WithGroup(string) slog.Handler { return h }

func (h *consoleHandler) tagColor(msg string) (string, bool) {
	if !strings.HasPrefix(msg, "[") {
		return "", false
	}
	end := strings.IndexByte(msg, ']')
	if end < 0 {
		return "", false
	}
	c, ok := tagColors[msg[:end+1]]
	return c, ok
}

func levelColor(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return colorDebug
	case slog.LevelInfo:
		return colorInfo
	case slog.LevelWarn:
		return colorWarn
	case slog.LevelError:
		return colorError
	default:
		return colorReset
	}
}
