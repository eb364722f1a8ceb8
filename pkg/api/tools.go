package api

import (
	"context"
	"iter"

	"github.com/google/jsonschema-go/jsonschema"
)

// Operation is one named unit of device or vision work. The registry owns the
// name; an operation only describes itself and executes.
type Operation interface {
	Description() string
	// Execute validates params, performs the work and builds a Result.
	// Failures are returned as errors and converted by the registry.
	Execute(ctx context.Context, params Params) (*Result, error)
}

// SchemaProvider is implemented by operations that publish their parameter
// contract (used by help output, the web catalog and the MCP server).
type SchemaProvider interface {
	InputSchema() *jsonschema.Schema
}

// Status of a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the uniform envelope returned by every invocation.
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Err     error          `json:"-"` // typed cause when Status is error
}

// NewResult returns a success result with an empty data map.
func NewResult(message string) *Result {
	return &Result{
		Status:  StatusSuccess,
		Message: message,
		Data:    map[string]any{},
	}
}

// ErrorResult converts err into an error result.
func ErrorResult(err error) *Result {
	return &Result{
		Status:  StatusError,
		Message: err.Error(),
		Data:    map[string]any{},
		Err:     err,
	}
}

// With sets a data entry and returns r for chaining.
func (r *Result) With(key string, value any) *Result {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// OK reports a success result.
func (r *Result) OK() bool {
	return r != nil && r.Status == StatusSuccess
}

// Invoker is the dispatch surface consumed by transports.
type Invoker interface {
	Invoke(ctx context.Context, name string, params Params) *Result
	List() iter.Seq2[string, string]
	Get(name string) (Operation, bool)
}
