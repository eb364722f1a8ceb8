package monitor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// CustomHandler implements slog.Handler to provide [TIME] [LEVEL] format
type CustomHandler struct {
	w     io.Writer
	mu    *sync.Mutex // shared by derived handlers so lines never interleave
	opts  slog.HandlerOptions
	attrs []slog.Attr
}

func NewCustomHandler(w io.Writer, opts slog.HandlerOptions) *CustomHandler {
	return &CustomHandler{
		w:    w,
		mu:   &sync.Mutex{},
		opts: opts,
	}
}

func (h *CustomHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := bytes.NewBuffer(nil)

	invocationID := ""
	if ctx != nil {
		invocationID = InvocationID(ctx)
	}

	// Format: [2006-01-02 15:04:05] [LEVEL] [INVOCATION_ID] Message
	// Or:    [2006-01-02 15:04:05] [LEVEL] Message (outside an invocation)
	fmt.Fprintf(buf, "[%s] [%s]",
		r.Time.Format("2006-01-02 15:04:05"),
		r.Level,
	)

	if invocationID != "" {
		fmt.Fprintf(buf, " [%s]", invocationID)
	}

	fmt.Fprintf(buf, " %s", r.Message)

	// Append attributes
	// 1. Stored attributes (from WithAttrs)
	for _, a := range h.attrs {
		h.appendAttr(buf, a)
	}

	// 2. Record attributes
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(buf, a)
		return true
	})

	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *CustomHandler) appendAttr(buf *bytes.Buffer, a slog.Attr) {
	buf.WriteString(" ")
	buf.WriteString(a.Key)
	buf.WriteString("=")

	// Simple value formatting
	val := a.Value.Resolve()
	switch val.Kind() {
	case slog.KindString:
		fmt.Fprintf(buf, "%q", val.String())
	case slog.KindTime:
		buf.WriteString(val.Time().Format(time.RFC3339))
	default:
		fmt.Fprintf(buf, "%v", val.Any())
	}
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CustomHandler{
		w:     h.w,
		mu:    h.mu,
		opts:  h.opts,
		attrs: append(slices.Clip(h.attrs), attrs...),
	}
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	// Grouping not fully supported in this simple implementation
	return h
}

// level is shared by every handler installed through SetupSlog so that
// SetLevel takes effect without rebuilding the logger.
var level = new(slog.LevelVar)

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
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

// SetupSlog initializes the global slog logger with the CustomHandler on w.
func SetupSlog(w io.Writer, levelStr string) {
	level.Set(ParseLevel(levelStr))
	handler := NewCustomHandler(w, slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// SetLevel changes the minimum level of the logger installed by SetupSlog.
func SetLevel(levelStr string) {
	newLevel := ParseLevel(levelStr)
	if level.Level() != newLevel {
		level.Set(newLevel)
		slog.Info("Log level changed", "level", newLevel)
	}
}

type invocationKey struct{}

// WithInvocationID tags ctx so every log line of one command carries id.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationID returns the id stored by WithInvocationID, or "".
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}

// PrintBanner prints the startup banner
func PrintBanner(w io.Writer) {
	banner := `
    _    ____  ____    _____           _
   / \  |  _ \| __ )  |_   _|__   ___ | |
  / _ \ | | | |  _ \    | |/ _ \ / _ \| |
 / ___ \| |_| | |_) |   | | (_) | (_) | |
/_/   \_\____/|____/    |_|\___/ \___/|_|
`
	fmt.Fprintln(w, banner)
}
