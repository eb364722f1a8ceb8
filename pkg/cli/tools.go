package cli

import (
	"adbtool/pkg/handler"
	"adbtool/pkg/tools"
	"fmt"

	"github.com/spf13/cobra"
)

// newToolsCmd prints the operation catalog without touching a device.
func (a *App) newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available device operations",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			// describe_screenshot is listed too; at run time it needs a vision backend.
			registry := tools.NewToolRegistry(nil)
			registry.Register(tools.DescribeScreenshotName, tools.NewDescribeScreenshotTool(nil, nil))
			fmt.Fprintln(a.stdout, handler.FormatHelp(tools.Catalog(registry)))
		},
	}
}
