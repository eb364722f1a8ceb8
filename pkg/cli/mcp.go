package cli

import (
	"adbtool/pkg/mcpserver"
	"adbtool/pkg/tools"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// newMCPCmd serves the operation catalog to MCP clients on stdin/stdout.
// Logs and traces go to stderr so the protocol stream stays clean.
func (a *App) newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve device operations as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sys, err := a.opts.resolve(cmd, os.LookupEnv)
			if err != nil {
				return a.configError(cmd, err)
			}

			rt, err := a.startRuntime(cmd.Context(), cfg, sys)
			if err != nil {
				return err
			}
			defer rt.close()

			slog.Info("MCP server listening on stdio", "device", cfg.Device.ID)
			return mcpserver.New(tools.NewSerialInvoker(rt.registry), Version).Serve(cmd.Context())
		},
	}
}
