package vision

import (
	"adbtool/pkg/monitor"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ResponseDebugger saves raw backend responses for inspection.
// It centralizes the logic for directory creation, file naming, and safe writing.
type ResponseDebugger struct {
	dir     string
	enabled bool
}

// NewResponseDebugger creates a debugger writing under debug/vision/<provider>.
func NewResponseDebugger(provider string, enabled bool) *ResponseDebugger {
	return &ResponseDebugger{
		dir:     filepath.Join("debug", "vision", provider),
		enabled: enabled,
	}
}

// Dump writes one raw response. The file is named after the time and the
// invocation id found in ctx.
func (d *ResponseDebugger) Dump(ctx context.Context, raw []byte) {
	if d == nil || !d.enabled || len(raw) == 0 {
		return
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		slog.Warn("Failed to create debug directory", "dir", d.dir, "error", err)
		return
	}

	name := time.Now().Format("20060102_150405.000")
	if id := monitor.InvocationID(ctx); id != "" {
		name += "_" + id
	}
	filename := filepath.Join(d.dir, fmt.Sprintf("%s.json", name))
	if err := os.WriteFile(filename, raw, 0o644); err != nil {
		slog.Warn("Failed to write debug file", "file", filename, "error", err)
		return
	}
	slog.DebugContext(ctx, "Vision response saved", "file", filename)
}
