// Package diag collects the user-facing INFO/WARNING/ERROR messages produced
// while importing a file. Messages are appended in order, mirrored to the
// console and written to a durable output file.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is the severity of a diagnostic.
type Level string

// Diagnostic levels.
const (
	Info    Level = "INFO"
	Warning Level = "WARNING"
	Error   Level = "ERROR"
)

// Diagnostic is one appended message. It is never modified after creation.
type Diagnostic struct {
	Level Level
	Text  string
	Time  time.Time
}

// String returns the "LEVEL: text" form written to the console and file.
func (d Diagnostic) String() string {
	return string(d.Level) + ": " + d.Text
}

var levelColors = map[Level]*color.Color{
	Info:    color.New(color.FgCyan),
	Warning: color.New(color.FgYellow),
	Error:   color.New(color.FgRed, color.Bold),
}

// Log is an append-only, order-preserving diagnostic sink.
type Log struct {
	mu       sync.Mutex
	entries  []Diagnostic
	console  io.Writer
	colorize bool
	file     io.Writer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithConsole mirrors every diagnostic to w. Colors are used when w is a
// terminal.
func WithConsole(w io.Writer) Option {
	return func(l *Log) {
		l.console = w
		l.colorize = isTerminal(w)
	}
}

// WithFile writes every diagnostic, uncolored, to w.
func WithFile(w io.Writer) Option {
	return func(l *Log) { l.file = w }
}

// WithLogger also emits every diagnostic as a debug-level log record.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New creates an empty Log.
func New(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append records a diagnostic and writes it to every configured output.
// Write failures on the mirrors are logged but never returned; the
// in-memory record is always kept.
func (l *Log) Append(level Level, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := Diagnostic{Level: level, Text: text, Time: l.now()}
	l.entries = append(l.entries, d)

	if l.console != nil {
		line := d.String()
		if c, ok := levelColors[level]; ok && l.colorize {
			line = c.Sprint(line)
		}
		if _, err := fmt.Fprintln(l.console, line); err != nil && l.logger != nil {
			l.logger.Warn("writing diagnostic to console", slog.Any("error", err))
		}
	}
	if l.file != nil {
		if _, err := fmt.Fprintln(l.file, d.String()); err != nil && l.logger != nil {
			l.logger.Warn("writing diagnostic to output file", slog.Any("error", err))
		}
	}
	if l.logger != nil {
		// Debug only: the console mirror already shows the message.
		l.logger.Log(context.Background(), slog.LevelDebug, "diagnostic",
			slog.String("level", string(level)), slog.String("text", text))
	}
}

// Entries returns a copy of all diagnostics in append order.
func (l *Log) Entries() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Diagnostic, len(l.entries))
	copy(out, l.entries)
	return out
}

// Count returns how many diagnostics of the given level were appended.
func (l *Log) Count(level Level) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, d := range l.entries {
		if d.Level == level {
			n++
		}
	}
	return n
}

// OpenOutputFile truncates (or creates) the durable output file for a run.
func OpenOutputFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644) //nolint:gosec // G304: path from trusted config
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}
	return f, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
