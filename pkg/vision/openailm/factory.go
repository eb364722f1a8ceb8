package openailm

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"adbtool/pkg/vision"
)

// OpenAIFactory handles creation of OpenAI Clients
type OpenAIFactory struct{}

// Create implements ProviderFactory
func (f *OpenAIFactory) Create(opts vision.Options, _ *config.SystemConfig) (api.VisionBackend, error) {
	return NewClient(opts), nil
}

func (f *OpenAIFactory) RequiresAPIKey() bool { return true }

func init() {
	vision.RegisterProvider("openai", &OpenAIFactory{})
}
