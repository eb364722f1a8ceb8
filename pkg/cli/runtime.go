package cli

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"adbtool/pkg/device"
	"adbtool/pkg/monitor"
	"adbtool/pkg/otel"
	"adbtool/pkg/tools"
	"adbtool/pkg/vision"
	_ "adbtool/pkg/vision/autoload" // 自動註冊視覺服務
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// runtime is what every device-facing command needs: a connected device and
// the registry of operations bound to it.
type runtime struct {
	device   *device.ADB
	registry *tools.ToolRegistry
	shutdown func(context.Context) error
}

// startRuntime configures logging and tracing, connects the device and builds
// the operation registry.
func (a *App) startRuntime(ctx context.Context, cfg *config.Config, sys *config.SystemConfig) (*runtime, error) {
	monitor.SetupSlog(a.stderr, sys.LogLevel)

	shutdown, err := otel.Init(ctx, otel.Config{
		ServiceVersion: Version,
		UseStdout:      sys.Trace,
		Writer:         a.stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	dev := device.New(cfg.Device.ID, cfg.Device.ADBPath,
		device.WithTimeout(time.Duration(sys.CommandTimeoutMs)*time.Millisecond),
		device.WithRemoteDir(cfg.Device.RemoteDir),
	)
	if err := dev.Connect(ctx); err != nil {
		slog.Error("设备连接失败", "device", cfg.Device.ID, "error", err)
		_ = shutdown(context.Background())
		return nil, fmt.Errorf("设备连接失败: %w", err)
	}

	registry := tools.NewToolRegistry(dev)
	attachVision(registry, cfg.Vision, sys)

	return &runtime{device: dev, registry: registry, shutdown: shutdown}, nil
}

// attachVision enables describe_screenshot when the backend can be built.
// Everything else keeps working without it.
func attachVision(registry *tools.ToolRegistry, cfg config.VisionConfig, sys *config.SystemConfig) {
	backend, err := vision.NewFromConfig(cfg, sys)
	switch {
	case err == nil:
		registry.AttachVisionBackend(backend)
	case errors.Is(err, api.ErrBackendUnavailable):
		slog.Warn("未提供API密钥，视觉服务功能将不可用", "provider", cfg.Provider)
	default:
		slog.Warn("视觉服务初始化失败，视觉服务功能将不可用", "provider", cfg.Provider, "error", err)
	}
}

func (r *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.shutdown(ctx); err != nil {
		slog.Warn("Failed to flush traces", "error", err)
	}
}
