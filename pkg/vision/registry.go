package vision

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

// ProviderFactory 定義建立視覺後端的工廠介面
type ProviderFactory interface {
	// Create 根據配置建立一個視覺後端
	Create(opts Options, sys *config.SystemConfig) (api.VisionBackend, error)
	// RequiresAPIKey reports whether the provider is unusable without a key.
	RequiresAPIKey() bool
}

// 全域 Provider 註冊表
var providerRegistry = make(map[string]ProviderFactory)

// RegisterProvider 註冊一個 Provider Factory
func RegisterProvider(name string, factory ProviderFactory) {
	providerRegistry[name] = factory
}

// GetProviderFactory 取得指定名稱的 Provider Factory
func GetProviderFactory(name string) (ProviderFactory, bool) {
	f, ok := providerRegistry[name]
	return f, ok
}

// Providers lists the registered provider names.
func Providers() []string {
	return slices.Sorted(maps.Keys(providerRegistry))
}

// NewFromConfig builds the configured backend. A keyed provider without an
// API key yields a BackendUnavailable error so the caller can run without
// describe_screenshot.
func NewFromConfig(cfg config.VisionConfig, sys *config.SystemConfig) (api.VisionBackend, error) {
	factory, ok := GetProviderFactory(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("unknown vision provider %q (available: %v)", cfg.Provider, Providers())
	}
	opts := OptionsFromConfig(cfg, sys)
	if factory.RequiresAPIKey() && opts.APIKey == "" {
		return nil, ErrNoAPIKey(cfg.Provider)
	}

	backend, err := factory.Create(opts, sys)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s vision backend: %w", cfg.Provider, err)
	}
	slog.Info("Vision backend initialized", "provider", cfg.Provider, "model", opts.Model)
	return backend, nil
}
