package openailm

import (
	"adbtool/pkg/api"
	"adbtool/pkg/vision"
	"context"
	"log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Client describes screenshots through an OpenAI-compatible Chat Completions
// endpoint (OpenAI itself, DashScope, vLLM, ...).
type Client struct {
	client openai.Client
	opts   vision.Options
	debug  *vision.ResponseDebugger
}

// NewClient creates a new OpenAI client. The SDK's automatic retries are
// disabled: one describe is one request.
func NewClient(opts vision.Options) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Client{
		client: openai.NewClient(reqOpts...),
		opts:   opts,
		debug:  vision.NewResponseDebugger("openai", opts.Debug),
	}
}

func (c *Client) Describe(ctx context.Context, imagePath, prompt string) (string, error) {
	if c.opts.APIKey == "" {
		return "", vision.ErrNoAPIKey("openai")
	}
	img, err := vision.LoadImage(imagePath)
	if err != nil {
		return "", err
	}

	ctx, cancel := c.opts.WithTimeout(ctx)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.opts.SystemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: img.DataURL(),
				}),
			}),
		},
		MaxTokens:   openai.Int(int64(c.opts.MaxTokens)),
		Temperature: openai.Float(c.opts.Temperature),
	}

	slog.DebugContext(ctx, "Sending vision request", "provider", "openai", "model", c.opts.Model, "bytes", len(img.Data))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", api.BackendFailed("视觉服务调用失败", err)
	}
	c.debug.Dump(ctx, []byte(resp.RawJSON()))

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", api.BackendFailed("视觉服务未返回描述", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ api.VisionBackend = (*Client)(nil)
