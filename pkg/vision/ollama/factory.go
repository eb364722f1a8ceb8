package ollama

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"adbtool/pkg/vision"
)

const defaultModel = "qwen2.5vl"

// OllamaFactory handles creation of Ollama Clients
type OllamaFactory struct{}

// Create implements ProviderFactory. Without a base_url the engine's
// ollama_default_url is used.
func (f *OllamaFactory) Create(opts vision.Options, sys *config.SystemConfig) (api.VisionBackend, error) {
	if opts.BaseURL == "" {
		if sys == nil {
			sys = config.DefaultSystemConfig()
		}
		opts.BaseURL = sys.OllamaDefaultURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	return NewOllamaClient(opts)
}

func (f *OllamaFactory) RequiresAPIKey() bool { return false }

func init() {
	vision.RegisterProvider("ollama", &OllamaFactory{})
}
