package gateway

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"adbtool/pkg/monitor"
	"fmt"
)

// GatewayBuilder provides a fluent builder pattern interface for constructing
// and initializing a GatewayManager with all its necessary dependencies.
//
// All components (channels, handler, invoker) are pre-built and injected
// as instances; the Builder simply assembles and starts them.
type GatewayBuilder struct {
	gw           *GatewayManager      // The GatewayManager instance being constructed
	monitor      monitor.Monitor      // Monitoring implementation to be injected
	systemConfig *config.SystemConfig // Technical parameters for the gateway
	handler      api.MessageProcessor // Shell handler for text commands
	invoker      api.Invoker
	channels     []api.Channel // Pre-built channel instances to register
}

// NewGatewayBuilder creates a fresh GatewayBuilder instance and allocates
// an internal GatewayManager to be configured.
func NewGatewayBuilder() *GatewayBuilder {
	return &GatewayBuilder{
		gw: NewGatewayManager(),
	}
}

// WithMonitor injects a monitoring implementation into the builder.
// This monitor will be started automatically during the Build() process.
func (b *GatewayBuilder) WithMonitor(m monitor.Monitor) *GatewayBuilder {
	b.monitor = m
	return b
}

// WithSystemConfig provides engine-level technical parameters (rate limits).
func (b *GatewayBuilder) WithSystemConfig(cfg *config.SystemConfig) *GatewayBuilder {
	b.systemConfig = cfg
	return b
}

// WithChannel adds pre-built channel instances to the gateway.
func (b *GatewayBuilder) WithChannel(channels ...api.Channel) *GatewayBuilder {
	b.channels = append(b.channels, channels...)
	return b
}

// WithHandler injects the text command handler.
// If the handler implements api.ResponderAware or api.DispatcherAware, it is
// wired to the gateway during Build().
func (b *GatewayBuilder) WithHandler(h api.MessageProcessor) *GatewayBuilder {
	b.handler = h
	return b
}

// WithInvoker sets the registry (usually a tools.SerialInvoker) requests run on.
func (b *GatewayBuilder) WithInvoker(inv api.Invoker) *GatewayBuilder {
	b.invoker = inv
	return b
}

// Build finalizes the configuration, injects all dependencies into the
// GatewayManager, registers all channels, and starts everything.
// Returns the fully operational GatewayManager or an error if any stage fails.
func (b *GatewayBuilder) Build() (*GatewayManager, error) {
	// 0. Extract and apply system-level parameters
	if b.systemConfig != nil {
		b.gw.SetRateLimit(b.systemConfig.RateLimit, b.systemConfig.RateBurst)
	}

	// 1. Initialize and start the monitoring service
	if b.monitor != nil {
		b.gw.SetMonitor(b.monitor)
		if err := b.monitor.Start(); err != nil {
			return nil, fmt.Errorf("failed to start monitor: %w", err)
		}
	}

	if b.invoker != nil {
		b.gw.SetInvoker(b.invoker)
	}

	// 2. Register all pre-built channels
	for _, c := range b.channels {
		b.gw.Register(c)
	}

	// 3. Wire the command handler back to the gateway
	if b.handler != nil {
		if setter, ok := b.handler.(api.ResponderAware); ok {
			setter.SetResponder(b.gw)
		}
		if setter, ok := b.handler.(api.DispatcherAware); ok {
			setter.SetDispatcher(b.gw)
		}
		b.gw.SetMessageHandler(b.handler)
	}

	// 4. Start all registered channels
	if err := b.gw.StartAll(); err != nil {
		return nil, fmt.Errorf("failed to start channels: %w", err)
	}

	return b.gw, nil
}
