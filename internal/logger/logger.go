package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

type Config struct {
	Level  string
	Format string // "text", "json", "console"
	Output io.Writer
	// File, when set, receives a copy of every record.
	File string
	// RawTerminal terminates console lines with "\r\n" so they stay readable
	// while the debug console holds the terminal in raw mode.
	RawTerminal bool
}

var (
	once   sync.Once
	lg     *slog.Logger
	file   io.Closer
	warned sync.Map
)

// New builds a logger from cfg without touching the process default. The
// returned closer releases the log file, if any.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	out := cfg.Output
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(cfg.Output, f)
		closer = f
	}

	level := parseLevel(cfg.Level)
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	default:
		handler = &consoleHandler{w: out, level: level, crlf: cfg.RawTerminal}
	}
	return slog.New(handler), closer, nil
}

// Init installs the process-wide logger once. Later calls are no-ops.
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		var l *slog.Logger
		l, file, err = New(cfg)
		if err != nil {
			return
		}
		lg = l
		slog.SetDefault(lg)
	})
	return err
}

func L() *slog.Logger {
	if lg == nil {
		_ = Init(Config{Level: "debug", Format: "console"})
	}
	if lg == nil {
		return slog.Default()
	}
	return lg
}

// Close releases the log file opened by Init.
func Close() error {
	if file == nil {
		return nil
	}
	return file.Close()
}

// WarnOnce logs a warning the first time key is seen in this process.
func WarnOnce(key, msg string, args ...any) {
	warnOnce(L(), key, msg, args...)
}

func warnOnce(l *slog.Logger, key, msg string, args ...any) bool {
	if _, seen := warned.LoadOrStore(key, struct{}{}); seen {
		return false
	}
	l.Warn(msg, args...)
	return true
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// consoleHandler outputs human-friendly log lines:
//
//	12:00:00 INFO  ladder mounted  controller=player x=4.00
type consoleHandler struct {
	mu    sync.Mutex
	w     io.Writer
	level slog.Level
	crlf  bool
	attrs []slog.Attr
	group string
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		b.WriteString(formatAttr(h.group, a))
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(formatAttr(h.group, a))
		return true
	})

	if h.crlf {
		b.WriteString("\r\n")
	} else {
		b.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &consoleHandler{
		w:     h.w,
		level: h.level,
		crlf:  h.crlf,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
		group: h.group,
	}
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	prefix := name
	if h.group != "" {
		prefix = h.group + "." + name
	}
	return &consoleHandler{
		w:     h.w,
		level: h.level,
		crlf:  h.crlf,
		attrs: append([]slog.Attr{}, h.attrs...),
		group: prefix,
	}
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN "
	case l >= slog.LevelInfo:
		return "INFO "
	default:
		return "DEBUG"
	}
}

func formatAttr(group string, a slog.Attr) string {
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindFloat64 {
		return fmt.Sprintf("  %s=%.3f", key, v.Float64())
	}
	return fmt.Sprintf("  %s=%v", key, v)
}
