package mcpserver

import (
	"adbtool/pkg/api"
	"adbtool/pkg/tools"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type lockOnlyDevice struct {
	api.Device
	taps [][2]int
	fail bool
}

func (d *lockOnlyDevice) LockScreen(context.Context) error {
	if d.fail {
		return &api.CommandError{Command: "adb shell input keyevent KEYCODE_POWER", ExitCode: 1}
	}
	return nil
}

func (d *lockOnlyDevice) Tap(_ context.Context, x, y int) error {
	d.taps = append(d.taps, [2]int{x, y})
	return nil
}

func connect(t *testing.T, dev api.Device) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	srv := New(tools.NewSerialInvoker(tools.NewToolRegistry(dev)), "test")

	st, ct := mcp.NewInMemoryTransports()
	if _, err := srv.Connect(ctx, st); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestListTools(t *testing.T) {
	session := connect(t, &lockOnlyDevice{})
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tools) != 12 {
		t.Fatalf("expected the 12 device tools, got %d", len(res.Tools))
	}
	if res.Tools[0].InputSchema == nil {
		t.Fatal("tools must carry an input schema")
	}
}

func TestCallTool(t *testing.T) {
	dev := &lockOnlyDevice{}
	session := connect(t, dev)
	ctx := context.Background()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "screen_lock"})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || text(t, res) != "成功: 屏幕锁定成功" {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "tap", Arguments: map[string]any{"x": 10, "y": 20}})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || len(dev.taps) != 1 || dev.taps[0] != [2]int{10, 20} {
		t.Fatalf("tap not forwarded: %+v %v", res, dev.taps)
	}
}

func TestCallToolErrors(t *testing.T) {
	session := connect(t, &lockOnlyDevice{fail: true})
	ctx := context.Background()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "screen_lock"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.HasPrefix(text(t, res), "失败: 屏幕锁定失败") {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "tap", Arguments: map[string]any{"x": 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(text(t, res), "需要提供y参数") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestToolResult(t *testing.T) {
	res := toolResult(api.NewResult("截图成功").With("screenshot_path", "a.png"))
	if res.IsError || res.StructuredContent == nil {
		t.Fatalf("unexpected %+v", res)
	}
	failed := toolResult(api.ErrorResult(errors.New("boom")))
	if !failed.IsError || failed.StructuredContent != nil {
		t.Fatalf("unexpected %+v", failed)
	}
}
