package tools

import (
	"adbtool/pkg/api"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Re-export types from api package via aliases so callers only import tools.
type Operation = api.Operation
type Result = api.Result
type Params = api.Params

// DescribeScreenshotName is registered only once a vision backend is attached.
const DescribeScreenshotName = "describe_screenshot"

// ToolRegistry maps operation names to operations and converts every outcome
// into a Result. Names are listed in insertion order.
type ToolRegistry struct {
	mu     sync.RWMutex         // Protects names, tools and vision
	names  []string             // Insertion order for List
	tools  map[string]Operation // Internal map of tool name to implementation
	device api.Device
	vision api.VisionBackend
}

// NewToolRegistry creates a registry holding the device operation catalog.
func NewToolRegistry(device api.Device) *ToolRegistry {
	tr := &ToolRegistry{
		tools:  make(map[string]Operation),
		device: device,
	}
	for _, entry := range deviceCatalog(device) {
		tr.Register(entry.name, entry.op)
	}
	return tr
}

// Register inserts or replaces an operation. A replaced name keeps its position.
func (tr *ToolRegistry) Register(name string, op Operation) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if _, exists := tr.tools[name]; !exists {
		tr.names = append(tr.names, name)
	}
	tr.tools[name] = op
}

// Get retrieves an operation by name.
func (tr *ToolRegistry) Get(name string) (Operation, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	op, ok := tr.tools[name]
	return op, ok
}

// Len returns the number of registered operations.
func (tr *ToolRegistry) Len() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.names)
}

// List yields (name, description) pairs in insertion order. Each range over
// the returned sequence starts from the first entry again.
func (tr *ToolRegistry) List() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		tr.mu.RLock()
		names := append([]string(nil), tr.names...)
		tr.mu.RUnlock()

		for _, name := range names {
			op, ok := tr.Get(name)
			if !ok {
				continue
			}
			if !yield(name, op.Description()) {
				return
			}
		}
	}
}

// AttachVisionBackend sets the vision backend and registers describe_screenshot
// if it is not registered yet. An existing entry is never rebound.
func (tr *ToolRegistry) AttachVisionBackend(backend api.VisionBackend) {
	tr.mu.Lock()
	tr.vision = backend
	_, exists := tr.tools[DescribeScreenshotName]
	tr.mu.Unlock()

	if exists {
		slog.Debug("describe_screenshot already registered, keeping existing binding")
		return
	}
	tr.Register(DescribeScreenshotName, NewDescribeScreenshotTool(tr.device, backend))
}

// Invoke runs exactly one operation and never returns a Go error: unknown
// names, validation failures, collaborator failures and panics all come back
// as error Results.
func (tr *ToolRegistry) Invoke(ctx context.Context, name string, params Params) (res *Result) {
	ctx, span := otel.Tracer("adbtool/tools").Start(ctx, "ToolRegistry.Invoke",
		trace.WithAttributes(attribute.String("tool.name", name)))
	defer func() {
		span.SetAttributes(attribute.String("tool.status", string(res.Status)))
		if res.Status == api.StatusError {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Message)
		}
		span.End()
	}()

	op, ok := tr.Get(name)
	if !ok {
		slog.WarnContext(ctx, "Unknown tool", "tool", name)
		return api.ErrorResult(api.UnknownOperation(name))
	}
	if params == nil {
		params = Params{}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Tool panicked", "tool", name, "panic", r)
			res = api.ErrorResult(fmt.Errorf("工具执行异常: %v", r))
		}
	}()

	slog.DebugContext(ctx, "Invoking tool", "tool", name, "params", params)
	result, err := op.Execute(ctx, params)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "Tool failed", "tool", name, "error", err)
		return api.ErrorResult(err)
	case result == nil:
		return api.ErrorResult(fmt.Errorf("工具未返回结果: %s", name))
	}
	slog.InfoContext(ctx, "Tool finished", "tool", name, "status", result.Status)
	return result
}
