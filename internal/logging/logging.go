package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level          string
	Format         string
	FilePath       string
	FileMaxSizeMB  int
	FileMaxFiles   int
	FileMaxAgeDays int
	// Console receives log output; nil means stderr. Standard output is
	// left to the import diagnostics.
	Console io.Writer
}

// SwappableHandler is a thread-safe slog.Handler that delegates to an inner
// handler which can be atomically swapped at runtime.
type SwappableHandler struct {
	inner atomic.Pointer[slog.Handler]
}

// NewSwappableHandler creates a SwappableHandler wrapping h.
func NewSwappableHandler(h slog.Handler) *SwappableHandler {
	s := &SwappableHandler{}
	s.inner.Store(&h)
	return s
}

// Swap replaces the inner handler.
func (s *SwappableHandler) Swap(h slog.Handler) {
	s.inner.Store(&h)
}

// Enabled delegates to the inner handler.
func (s *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*s.inner.Load()).Enabled(ctx, level)
}

// Handle delegates to the inner handler.
func (s *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return (*s.inner.Load()).Handle(ctx, r)
}

// WithAttrs returns a new SwappableHandler whose inner handler has the attrs.
func (s *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewSwappableHandler((*s.inner.Load()).WithAttrs(attrs))
}

// WithGroup returns a new SwappableHandler whose inner handler has the group.
func (s *SwappableHandler) WithGroup(name string) slog.Handler {
	return NewSwappableHandler((*s.inner.Load()).WithGroup(name))
}

// Manager owns the logger for one CLI invocation.
type Manager struct {
	levelVar *slog.LevelVar
	handler  *SwappableHandler
	config   Config
	mu       sync.Mutex
	closer   io.Closer // lumberjack writer, if any
}

// NewManager creates a Manager and returns it along with a ready-to-use logger.
func NewManager(cfg Config) (*Manager, *slog.Logger) {
	lvl := &slog.LevelVar{}
	lvl.Set(parseLevel(cfg.Level))

	writer, closer := buildWriter(cfg)
	handler := NewSwappableHandler(buildHandler(writer, lvl, cfg.Format))

	m := &Manager{
		levelVar: lvl,
		handler:  handler,
		config:   cfg,
		closer:   closer,
	}
	return m, slog.New(handler)
}

// Reconfigure applies a new configuration. Level-only changes go through
// the LevelVar; format or output changes rebuild the handler.
func (m *Manager) Reconfigure(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.levelVar.Set(parseLevel(cfg.Level))

	needSwap := cfg.Format != m.config.Format ||
		cfg.FilePath != m.config.FilePath ||
		cfg.FileMaxSizeMB != m.config.FileMaxSizeMB ||
		cfg.FileMaxFiles != m.config.FileMaxFiles ||
		cfg.FileMaxAgeDays != m.config.FileMaxAgeDays ||
		cfg.Console != m.config.Console

	if needSwap {
		if m.closer != nil {
			m.closer.Close() //nolint:errcheck
			m.closer = nil
		}
		writer, closer := buildWriter(cfg)
		m.handler.Swap(buildHandler(writer, m.levelVar, cfg.Format))
		m.closer = closer
	}

	m.config = cfg
}

// SetVerbose switches to debug level, or back to the configured level.
func (m *Manager) SetVerbose(verbose bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if verbose {
		m.levelVar.Set(slog.LevelDebug)
		return
	}
	m.levelVar.Set(parseLevel(m.config.Level))
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Close releases the log file writer, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer != nil {
		err := m.closer.Close()
		m.closer = nil
		return err
	}
	return nil
}

// parseLevel converts a string to slog.Level, defaulting to Info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// buildWriter returns the console writer, teed into a rotating file when
// a path is configured.
func buildWriter(cfg Config) (io.Writer, io.Closer) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	if cfg.FilePath == "" {
		return console, nil
	}

	maxSize := cfg.FileMaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxFiles := cfg.FileMaxFiles
	if maxFiles <= 0 {
		maxFiles = 3
	}
	maxAge := cfg.FileMaxAgeDays
	if maxAge <= 0 {
		maxAge = 30
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxSize,
		MaxBackups: maxFiles,
		MaxAge:     maxAge,
	}
	return io.MultiWriter(console, lj), lj
}

func buildHandler(w io.Writer, leveler slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: leveler}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ValidLevel returns true if s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat returns true if s is a recognized log format.
func ValidFormat(s string) bool {
	return s == "text" || s == "json"
}

// DefaultConfig returns the CLI defaults: warnings and above, as text.
func DefaultConfig() Config {
	return Config{
		Level:          "warn",
		Format:         "text",
		FileMaxSizeMB:  10,
		FileMaxFiles:   3,
		FileMaxAgeDays: 30,
	}
}

func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_files=%d max_age=%dd",
			c.FilePath, c.FileMaxSizeMB, c.FileMaxFiles, c.FileMaxAgeDays)
	}
	return s
}
