package tools

import (
	"adbtool/pkg/api"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// DescribeScreenshotTool captures the screen and asks the vision backend to
// describe it. The backend is never called when the capture fails.
type DescribeScreenshotTool struct {
	device api.Device
	vision api.VisionBackend
}

// NewDescribeScreenshotTool 建立截圖描述工具
func NewDescribeScreenshotTool(device api.Device, vision api.VisionBackend) *DescribeScreenshotTool {
	return &DescribeScreenshotTool{
		device: device,
		vision: vision,
	}
}

func (t *DescribeScreenshotTool) Description() string {
	return "生成截图描述"
}

func (t *DescribeScreenshotTool) InputSchema() *jsonschema.Schema {
	return objectSchema(props{
		"prompt":      withDefault(str("描述提示词"), defaultDescribePrompt),
		"output_path": withDefault(str("截图保存路径"), defaultScreenshotPath),
	})
}

func (t *DescribeScreenshotTool) Execute(ctx context.Context, params Params) (*Result, error) {
	p, err := newDescribeParams(params)
	if err != nil {
		return nil, err
	}
	if t.vision == nil {
		return nil, api.BackendUnavailable("视觉服务未配置")
	}

	if err := t.device.CaptureScreenshot(ctx, p.OutputPath); err != nil {
		return nil, deviceFailed("截图失败", err)
	}

	description, err := t.vision.Describe(ctx, p.OutputPath, p.Prompt)
	if err != nil {
		slog.WarnContext(ctx, "Vision backend failed", "path", p.OutputPath, "error", err)
		var te *api.ToolError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, api.BackendFailed("截图描述生成失败", err)
	}

	return api.NewResult("截图描述生成成功").
		With("screenshot_path", p.OutputPath).
		With("description", description), nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
