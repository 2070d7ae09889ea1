package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RetentionDays bounds how long rotated log files are kept.
const RetentionDays = 7

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
	// Console overrides the console sink. Defaults to os.Stdout.
	Console io.Writer
	// NoColor disables ANSI colours on the console.
	NoColor bool
}

// Logger writes JSON records to a daily-rotated file and a readable line
// to the console. A nil *Logger is valid and discards everything.
type Logger struct {
	cfg     Config
	level   slog.Level
	console *slog.Logger

	mu          sync.RWMutex
	file        *os.File
	fileLogger  *slog.Logger
	currentDate string

	stopCh    chan struct{}
	closeOnce sync.Once
}

// New creates a Logger. When cfg.Dir is empty only the console sink is used.
func New(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.Level)
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	l := &Logger{
		cfg:         cfg,
		level:       level,
		console:     slog.New(&consoleHandler{writer: console, level: level, color: !cfg.NoColor}),
		currentDate: time.Now().Format("2006-01-02"),
		stopCh:      make(chan struct{}),
	}

	if cfg.Dir == "" {
		return l, nil
	}
	if cfg.Filename == "" {
		l.cfg.Filename = "server.log"
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if err := l.openFile(); err != nil {
		return nil, err
	}
	go l.rotationLoop()

	return l, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) path() string {
	return filepath.Join(l.cfg.Dir, l.cfg.Filename)
}

func (l *Logger) openFile() error {
	file, err := os.OpenFile(l.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	l.file = file
	l.fileLogger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: l.level}))
	return nil
}

func (l *Logger) rotationLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			today := time.Now().Format("2006-01-02")
			if today != l.currentDate {
				l.rotate(today)
				l.pruneArchives(time.Now())
			}
		case <-l.stopCh:
			return
		}
	}
}

func (l *Logger) archiveName(date string) string {
	ext := filepath.Ext(l.cfg.Filename)
	base := strings.TrimSuffix(l.cfg.Filename, ext)
	return fmt.Sprintf("%s-%s%s", base, date, ext)
}

func (l *Logger) rotate(today string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
	}
	archived := filepath.Join(l.cfg.Dir, l.archiveName(l.currentDate))
	if err := os.Rename(l.path(), archived); err != nil && !os.IsNotExist(err) {
		l.console.Error("rotate log file", slog.String("error", err.Error()))
	}
	if err := l.openFile(); err != nil {
		l.console.Error("reopen log file", slog.String("error", err.Error()))
		l.file = nil
		l.fileLogger = nil
	}
	l.currentDate = today
}

// pruneArchives removes rotated files older than RetentionDays.
func (l *Logger) pruneArchives(now time.Time) {
	entries, err := os.ReadDir(l.cfg.Dir)
	if err != nil {
		return
	}
	ext := filepath.Ext(l.cfg.Filename)
	prefix := strings.TrimSuffix(l.cfg.Filename, ext) + "-"
	cutoff := now.AddDate(0, 0, -RetentionDays)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext))
		if err != nil || !date.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(l.cfg.Dir, name)); err != nil {
			l.console.Warn("remove old log file", slog.String("file", name), slog.String("error", err.Error()))
		}
	}
}

// Close stops rotation and closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var err error
	l.closeOnce.Do(func() {
		close(l.stopCh)
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.file != nil {
			err = l.file.Close()
			l.file = nil
			l.fileLogger = nil
		}
	})
	return err
}

// Slog exposes the console logger for structured integrations.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.console
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if l == nil || level < l.level {
		return
	}

	var attrs []slog.Attr
	if len(args) > 0 && strings.Contains(msg, "%") {
		msg = fmt.Sprintf(msg, args...)
	} else if len(args) > 0 && args[0] != nil {
		if fields, ok := args[0].(map[string]any); ok {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				attrs = append(attrs, slog.Any(k, fields[k]))
			}
		} else {
			attrs = append(attrs, slog.Any("fields", args[0]))
		}
	}

	ctx := context.Background()
	l.mu.RLock()
	if l.fileLogger != nil {
		l.fileLogger.LogAttrs(ctx, level, msg, attrs...)
	}
	l.mu.RUnlock()
	l.console.LogAttrs(ctx, level, msg, attrs...)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// FormatTag prefixes message with "[tag]" unless it already starts with a tag.
func FormatTag(tag, message string) string {
	tag = strings.TrimSpace(tag)
	message = strings.TrimSpace(message)
	if tag == "" || strings.HasPrefix(message, "[") {
		return message
	}
	return "[" + tag + "] " + message
}

func (l *Logger) DebugTag(tag, msg string, args ...any) {
	l.log(slog.LevelDebug, FormatTag(tag, msg), args...)
}

func (l *Logger) InfoTag(tag, msg string, args ...any) {
	l.log(slog.LevelInfo, FormatTag(tag, msg), args...)
}

func (l *Logger) WarnTag(tag, msg string, args ...any) {
	l.log(slog.LevelWarn, FormatTag(tag, msg), args...)
}

func (l *Logger) ErrorTag(tag, msg string, args ...any) {
	l.log(slog.LevelError, FormatTag(tag, msg), args...)
}
