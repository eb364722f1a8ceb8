package console

import (
	"adbtool/pkg/api"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

type echoContext struct {
	ch       *ConsoleChannel
	received []string
}

func (e *echoContext) OnMessage(_ string, msg *api.UnifiedMessage) {
	e.received = append(e.received, msg.Content)
	_ = e.ch.Send(msg.Session, "成功: "+msg.Content)
}

func (e *echoContext) Dispatch(context.Context, api.SessionContext, api.ToolRequest) *api.Result {
	return nil
}
func (e *echoContext) Catalog() []api.ToolInfo                    { return nil }
func (e *echoContext) SendReply(api.SessionContext, string) error { return nil }
func (e *echoContext) SendImage(api.SessionContext, string) error { return nil }

func run(t *testing.T, input string) (*echoContext, string) {
	t.Helper()
	var out bytes.Buffer
	ch := NewConsoleChannel(strings.NewReader(input), &out)
	ctx := &echoContext{ch: ch}
	if err := ch.Start(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("console did not finish")
	}
	return ctx, out.String()
}

func TestConsoleStopsOnExit(t *testing.T) {
	ctx, out := run(t, "screen_lock\n\n  tap --x=1 --y=2  \nQUIT\nscreen_unlock\n")

	if len(ctx.received) != 2 || ctx.received[0] != "screen_lock" || ctx.received[1] != "tap --x=1 --y=2" {
		t.Fatalf("received = %q", ctx.received)
	}
	if !strings.Contains(out, "成功: screen_lock\n") {
		t.Fatalf("output = %q", out)
	}
	if strings.Count(out, Prompt) != 4 {
		t.Fatalf("expected 4 prompts, output = %q", out)
	}
}

func TestConsoleStopsOnEOF(t *testing.T) {
	ctx, _ := run(t, "screen_lock")
	if len(ctx.received) != 1 {
		t.Fatalf("received = %q", ctx.received)
	}
}
