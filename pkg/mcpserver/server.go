package mcpserver

import (
	"adbtool/pkg/api"
	"adbtool/pkg/handler"
	"adbtool/pkg/monitor"
	"adbtool/pkg/tools"
	"adbtool/pkg/utils"
	"context"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	jsoniter "github.com/json-iterator/go"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server exposes every registered operation as an MCP tool.
type Server struct {
	srv     *mcp.Server
	invoker api.Invoker
}

// New builds the MCP server for inv. Tools are registered from the catalog
// at construction time.
func New(inv api.Invoker, version string) *Server {
	s := &Server{
		srv:     mcp.NewServer(&mcp.Implementation{Name: "adbtool", Version: version}, nil),
		invoker: inv,
	}
	for _, info := range tools.Catalog(inv) {
		s.srv.AddTool(&mcp.Tool{
			Name:        info.Name,
			Description: info.Description,
			InputSchema: inputSchema(info),
		}, s.handle(info.Name))
	}
	return s
}

// Serve runs the server over stdin/stdout until ctx ends or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	slog.Info("MCP server listening on stdio")
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.srv.Connect(ctx, t, nil)
}

func (s *Server) handle(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = monitor.WithInvocationID(ctx, utils.GenerateID())

		params := api.Params{}
		if raw := req.Params.Arguments; len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				return toolResult(api.ErrorResult(api.InvalidParameters("参数不是有效的JSON对象: %v", err))), nil
			}
		}

		res := s.invoker.Invoke(ctx, name, params)
		slog.DebugContext(ctx, "MCP tool call finished", "tool", name, "status", res.Status)
		return toolResult(res), nil
	}
}

func toolResult(res *api.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: handler.FormatResult(res)}},
		IsError: !res.OK(),
	}
	if len(res.Data) > 0 {
		out.StructuredContent = res.Data
	}
	return out
}

// inputSchema falls back to an empty object schema for operations that do
// not describe their parameters.
func inputSchema(info api.ToolInfo) any {
	if s, ok := info.InputSchema.(*jsonschema.Schema); ok && s != nil {
		return s
	}
	return &jsonschema.Schema{Type: "object"}
}
