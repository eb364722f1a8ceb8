package tools

import (
	"adbtool/pkg/api"
	"context"
	"iter"
	"sync"
)

// SerialInvoker lets several transports share one registry while the device
// only ever sees one command at a time.
type SerialInvoker struct {
	mu       sync.Mutex
	registry *ToolRegistry
}

func NewSerialInvoker(registry *ToolRegistry) *SerialInvoker {
	return &SerialInvoker{registry: registry}
}

func (s *SerialInvoker) Invoke(ctx context.Context, name string, params Params) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Invoke(ctx, name, params)
}

func (s *SerialInvoker) List() iter.Seq2[string, string] {
	return s.registry.List()
}

func (s *SerialInvoker) Get(name string) (Operation, bool) {
	return s.registry.Get(name)
}

// Catalog returns every registered operation with its schema.
func Catalog(inv api.Invoker) []api.ToolInfo {
	var infos []api.ToolInfo
	for name, desc := range inv.List() {
		info := api.ToolInfo{Name: name, Description: desc}
		if op, ok := inv.Get(name); ok {
			if sp, ok := op.(api.SchemaProvider); ok && sp.InputSchema() != nil {
				info.InputSchema = sp.InputSchema()
			}
		}
		infos = append(infos, info)
	}
	return infos
}

var (
	_ api.Invoker = (*ToolRegistry)(nil)
	_ api.Invoker = (*SerialInvoker)(nil)
)
