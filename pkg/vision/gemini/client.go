package gemini

import (
	"adbtool/pkg/api"
	"adbtool/pkg/vision"
	"context"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/genai"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GeminiClient describes screenshots with the Gemini API, sending the image
// as inline data.
type GeminiClient struct {
	client *genai.Client
	opts   vision.Options
	debug  *vision.ResponseDebugger
}

// NewGeminiClient creates a Gemini client for one model and API key.
func NewGeminiClient(ctx context.Context, opts vision.Options) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &GeminiClient{
		client: client,
		opts:   opts,
		debug:  vision.NewResponseDebugger("gemini", opts.Debug),
	}, nil
}

func (g *GeminiClient) Describe(ctx context.Context, imagePath, prompt string) (string, error) {
	if g.opts.APIKey == "" {
		return "", vision.ErrNoAPIKey("gemini")
	}
	img, err := vision.LoadImage(imagePath)
	if err != nil {
		return "", err
	}

	ctx, cancel := g.opts.WithTimeout(ctx)
	defer cancel()

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
		},
	}}
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: g.opts.SystemPrompt}}},
		Temperature:       genai.Ptr(float32(g.opts.Temperature)),
		MaxOutputTokens:   int32(g.opts.MaxTokens),
	}

	slog.DebugContext(ctx, "Sending vision request", "provider", "gemini", "model", g.opts.Model, "bytes", len(img.Data))
	res, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, genCfg)
	if err != nil {
		return "", api.BackendFailed("视觉服务调用失败", err)
	}
	if raw, err := json.Marshal(res); err == nil {
		g.debug.Dump(ctx, raw)
	}

	text := res.Text()
	if text == "" {
		return "", api.BackendFailed("视觉服务未返回描述", nil)
	}
	return text, nil
}

var _ api.VisionBackend = (*GeminiClient)(nil)
