package vision

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"adbtool/pkg/utils"
	"context"
	"encoding/base64"
	"os"
	"time"
)

// DefaultSystemPrompt is sent ahead of every description request.
const DefaultSystemPrompt = "你是一个专业的图像分析助手，请详细描述图像内容。"

// Options are the resolved per-backend settings shared by all providers.
type Options struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration // 0 means no timeout
	Debug        bool
}

// OptionsFromConfig merges the vision config with the engine parameters.
func OptionsFromConfig(cfg config.VisionConfig, sys *config.SystemConfig) Options {
	opts := Options{
		Provider:     cfg.Provider,
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		BaseURL:      cfg.BaseURL,
		SystemPrompt: cfg.SystemPrompt,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  config.DefaultTemp,
	}
	if cfg.Temperature != nil {
		opts.Temperature = *cfg.Temperature
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = config.DefaultMaxTokens
	}
	if sys != nil {
		opts.Timeout = time.Duration(sys.VisionTimeoutMs) * time.Millisecond
		opts.Debug = sys.DebugVision
	}
	return opts
}

// WithTimeout bounds ctx by the configured request timeout.
func (o Options) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}

// Image is a screenshot loaded for upload.
type Image struct {
	Data     []byte
	MIMEType string
}

// LoadImage reads the screenshot at path.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, api.BackendFailed("读取截图失败", err)
	}
	return &Image{Data: data, MIMEType: utils.ImageMimeType(data)}, nil
}

// DataURL encodes the image as a data: URL for OpenAI-compatible endpoints.
func (img *Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ErrNoAPIKey is the BackendUnavailable error returned by keyed providers.
func ErrNoAPIKey(provider string) error {
	return api.BackendUnavailable("未提供API密钥，视觉服务不可用 (" + provider + ")")
}
