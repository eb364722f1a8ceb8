package cli

import (
	"adbtool/pkg/channels"
	_ "adbtool/pkg/channels/autoload" // 自動註冊 Channels
	"adbtool/pkg/channels/console"
	"adbtool/pkg/config"
	"adbtool/pkg/gateway"
	"adbtool/pkg/handler"
	"adbtool/pkg/monitor"
	"adbtool/pkg/tools"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// runShell is the root command: the interactive shell plus any remote
// channels named in the config file.
func (a *App) runShell(cmd *cobra.Command, _ []string) error {
	cfg, sys, err := a.opts.resolve(cmd, os.LookupEnv)
	if err != nil {
		return a.configError(cmd, err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt, err := a.startRuntime(ctx, cfg, sys)
	if err != nil {
		return err
	}
	defer rt.close()

	monitor.PrintBanner(a.stdout)

	// --- Gateway 初始化（使用 Builder 模式）---
	shell := console.NewConsoleChannel(a.stdin, a.stdout)
	remote := channels.LoadFromConfig(cfg.Channels, sys)

	builder := gateway.NewGatewayBuilder().
		WithSystemConfig(sys).
		WithInvoker(tools.NewSerialInvoker(rt.registry)).
		WithHandler(handler.NewCommandHandler()).
		WithChannel(shell).
		WithChannel(remote...)
	if sys.Monitor && len(remote) > 0 {
		builder.WithMonitor(monitor.NewCLIMonitor(a.stdout))
	}

	gw, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build gateway: %w", err)
	}
	defer gw.StopAll()

	// system.json 變更時即時套用日誌等級
	go config.WatchSystemConfig(ctx, a.opts.systemPath, func(s *config.SystemConfig) {
		monitor.SetLevel(s.LogLevel)
		slog.Info("System config reloaded", "log_level", s.LogLevel)
	})

	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal. Stopping services...")
	case <-shell.Done():
	}
	return nil
}

// configError prints the usage for a missing device id, the one mistake a
// first-time user always makes.
func (a *App) configError(cmd *cobra.Command, err error) error {
	if errors.Is(err, config.ErrMissingDeviceID) {
		fmt.Fprintln(a.stderr, "错误: "+err.Error())
		fmt.Fprint(a.stderr, cmd.UsageString())
	}
	return err
}
