package handler

import (
	"adbtool/pkg/api"
	"adbtool/pkg/monitor"
	"context"
	"log/slog"
	"strings"
	"time"
)

// ScreenshotDataKey is the result field that makes the handler push the image
// to channels able to show it.
const ScreenshotDataKey = "screenshot_path"

// CommandHandler executes shell lines arriving from any channel.
// It is wired by the gateway builder, which injects the responder and the
// dispatcher before any channel starts.
type CommandHandler struct {
	responder  api.MessageResponder
	dispatcher api.Dispatcher
}

func NewCommandHandler() *CommandHandler {
	return &CommandHandler{}
}

func (h *CommandHandler) SetResponder(r api.MessageResponder) { h.responder = r }

func (h *CommandHandler) SetDispatcher(d api.Dispatcher) { h.dispatcher = d }

// IsExit reports whether line asks the shell to terminate.
func IsExit(line string) bool {
	cmd := strings.TrimSpace(line)
	return strings.EqualFold(cmd, "exit") || strings.EqualFold(cmd, "quit")
}

// IsHelp reports whether line asks for the operation list.
func IsHelp(line string) bool {
	return strings.EqualFold(NormalizeCommand(line), "help") || strings.EqualFold(NormalizeCommand(line), "start")
}

// OnMessage handles one command line. Replies go back through the responder
// to the originating session.
func (h *CommandHandler) OnMessage(msg *api.UnifiedMessage) {
	line := NormalizeCommand(msg.Content)
	if line == "" {
		return
	}

	ctx := monitor.WithInvocationID(context.Background(), msg.InvocationID)

	switch {
	case IsHelp(line):
		h.reply(ctx, msg.Session, FormatHelp(h.dispatcher.Catalog()))
		return
	case IsExit(line):
		// 只有本機 console 能結束程式
		h.reply(ctx, msg.Session, "远程会话不支持退出命令")
		return
	}

	name, params, err := ParseCommand(line)
	if err != nil {
		h.reply(ctx, msg.Session, "无效命令，请输入 'help' 查看可用命令 ("+err.Error()+")")
		return
	}

	start := time.Now()
	slog.InfoContext(ctx, "执行工具", "channel", msg.Session.ChannelID, "tool", name, "params", params)
	res := h.dispatcher.Dispatch(ctx, msg.Session, api.ToolRequest{Tool: name, Params: params})
	slog.DebugContext(ctx, "Command finished", "tool", name, "status", res.Status, "duration", time.Since(start).String())

	h.reply(ctx, msg.Session, FormatResult(res))

	if res.OK() {
		if path, ok := res.Data[ScreenshotDataKey].(string); ok && path != "" {
			if err := h.responder.SendImage(msg.Session, path); err != nil {
				slog.WarnContext(ctx, "Failed to send screenshot", "path", path, "error", err)
			}
		}
	}
}

func (h *CommandHandler) reply(ctx context.Context, session api.SessionContext, text string) {
	if err := h.responder.SendReply(session, text); err != nil {
		slog.ErrorContext(ctx, "Failed to send reply", "channel", session.ChannelID, "error", err)
	}
}

var (
	_ api.MessageProcessor = (*CommandHandler)(nil)
	_ api.ResponderAware   = (*CommandHandler)(nil)
	_ api.DispatcherAware  = (*CommandHandler)(nil)
)
