package ollama

import (
	"adbtool/pkg/api"
	"adbtool/pkg/vision"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	ollamaapi "github.com/ollama/ollama/api"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OllamaClient describes screenshots with a local multimodal Ollama model.
type OllamaClient struct {
	client *ollamaapi.Client
	opts   vision.Options
	debug  *vision.ResponseDebugger
}

// NewOllamaClient creates an Ollama client for baseURL.
func NewOllamaClient(opts vision.Options) (*OllamaClient, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}

	// Request deadlines come from ctx; the transport only bounds connection setup.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	slog.Info("Ollama client initialized", "model", opts.Model, "base_url", opts.BaseURL)
	return &OllamaClient{
		client: ollamaapi.NewClient(u, &http.Client{Transport: transport}),
		opts:   opts,
		debug:  vision.NewResponseDebugger("ollama", opts.Debug),
	}, nil
}

func (o *OllamaClient) Describe(ctx context.Context, imagePath, prompt string) (string, error) {
	img, err := vision.LoadImage(imagePath)
	if err != nil {
		return "", err
	}

	ctx, cancel := o.opts.WithTimeout(ctx)
	defer cancel()

	stream := false
	req := &ollamaapi.ChatRequest{
		Model: o.opts.Model,
		Messages: []ollamaapi.Message{
			{Role: "system", Content: o.opts.SystemPrompt},
			{Role: "user", Content: prompt, Images: []ollamaapi.ImageData{img.Data}},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": o.opts.Temperature,
			"num_predict": o.opts.MaxTokens,
		},
	}

	slog.DebugContext(ctx, "Sending vision request", "provider", "ollama", "model", o.opts.Model, "bytes", len(img.Data))
	var sb strings.Builder
	err = o.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		if resp.Done {
			if raw, err := json.Marshal(resp); err == nil {
				o.debug.Dump(ctx, raw)
			}
		}
		return nil
	})
	if err != nil {
		return "", api.BackendFailed("视觉服务调用失败", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", api.BackendFailed("视觉服务未返回描述", nil)
	}
	return text, nil
}

var _ api.VisionBackend = (*OllamaClient)(nil)
