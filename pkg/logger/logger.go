// Package logger provides the slog handlers used across graphconf.
//
// NewColorHandler writes human-readable, level-coloured lines for terminals;
// New picks between that handler and slog's JSON handler from configuration.
package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	gray   = "\033[90m"
)

// highlighted messages are printed in green so finished results stand out
var highlighted = []string{"estimate", "completed", "loaded"}

// ColorHandler is a slog.Handler that writes one coloured text line per record.
type ColorHandler struct {
	w      io.Writer
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
	color  bool
}

// NewColorHandler creates a ColorHandler writing to w. Colours are disabled
// when w is not a terminal or NO_COLOR is set.
func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	h := &ColorHandler{
		w:     w,
		mu:    &sync.Mutex{},
		color: useColor(w),
	}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled implements slog.Handler
func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.opts.Level != nil {
		min = h.opts.Level.Level()
	}
	return level >= min
}

// Handle implements slog.Handler
func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		buf.WriteString(r.Time.Format(time.TimeOnly))
		buf.WriteByte(' ')
	}

	level := r.Level.String()
	msg := r.Message
	if h.color {
		switch {
		case r.Level >= slog.LevelError:
			level = red + level + reset
			msg = red + msg + reset
		case r.Level >= slog.LevelWarn:
			level = yellow + level + reset
			msg = yellow + msg + reset
		case r.Level < slog.LevelInfo:
			level = gray + level + reset
		case isHighlighted(msg):
			msg = green + msg + reset
		}
	}
	fmt.Fprintf(&buf, "%-5s %s", level, msg)

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		writeAttr(&buf, prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func isHighlighted(msg string) bool {
	lower := strings.ToLower(msg)
	for _, word := range highlighted {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(buf, key, ga)
		}
		return
	}
	fmt.Fprintf(buf, " %s=%s", key, a.Value.String())
}

// WithAttrs implements slog.Handler
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// NewDefaultLogger returns a logger writing coloured text to stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// New builds a logger from a level name (debug, info, warn, error) and a
// format (text, json) writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(NewColorHandler(w, opts))
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
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
