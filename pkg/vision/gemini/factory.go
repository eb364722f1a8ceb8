package gemini

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"adbtool/pkg/vision"
	"context"
)

const defaultModel = "gemini-2.5-flash"

// GeminiFactory handles creation of Gemini Clients
type GeminiFactory struct{}

// Create implements ProviderFactory
func (f *GeminiFactory) Create(opts vision.Options, _ *config.SystemConfig) (api.VisionBackend, error) {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	return NewGeminiClient(context.Background(), opts)
}

func (f *GeminiFactory) RequiresAPIKey() bool { return true }

func init() {
	vision.RegisterProvider("gemini", &GeminiFactory{})
}
