package gateway

import (
	"adbtool/pkg/api"
	"adbtool/pkg/monitor"
	"adbtool/pkg/tools"
	"adbtool/pkg/utils"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// ConsoleChannelID identifies the local terminal. It is never rate limited
// and its traffic is not echoed to the monitor.
const ConsoleChannelID = "console"

// GatewayManager 負責管理所有的 Channels 並統一路由訊息
type GatewayManager struct {
	channels  map[string]api.Channel
	processor api.MessageProcessor // 處理文字命令 (shell 協定)
	invoker   api.Invoker          // 執行結構化請求
	monitor   monitor.Monitor      // 監控器
	limiter   ratelimit.RateLimiter
	mu        sync.RWMutex
}

// NewGatewayManager 建立一個新的 GatewayManager
func NewGatewayManager() *GatewayManager {
	return &GatewayManager{
		channels: make(map[string]api.Channel),
	}
}

// SetMessageHandler 設定處理文字命令的核心邏輯
func (g *GatewayManager) SetMessageHandler(p api.MessageProcessor) {
	g.processor = p
}

// SetInvoker 設定工具執行入口
func (g *GatewayManager) SetInvoker(inv api.Invoker) {
	g.invoker = inv
}

// SetMonitor 設定監控器
func (g *GatewayManager) SetMonitor(m monitor.Monitor) {
	g.monitor = m
}

// SetRateLimit installs a per-sender token bucket for remote channels.
// rate <= 0 disables limiting.
func (g *GatewayManager) SetRateLimit(rate, burst int) {
	if rate <= 0 {
		g.limiter = nil
		return
	}
	if burst <= 0 {
		burst = rate
	}
	g.limiter = ratelimit.New(&ratelimit.Config{
		Rate:  rate,
		Burst: burst,
	})
}

// Register 註冊一個 Channel
func (g *GatewayManager) Register(c api.Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
}

// GetChannel 取得特定的 Channel (通常用於主動發送訊息)
func (g *GatewayManager) GetChannel(id string) (api.Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

// StartAll 啟動所有已註冊的 Channels
func (g *GatewayManager) StartAll() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, id := range slices.Sorted(maps.Keys(g.channels)) {
		slog.Debug("Starting channel", "channel", id)
		// 啟動 Channel，並傳入 self 作為 Context
		if err := g.channels[id].Start(g); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", id, err)
		}
	}
	return nil
}

// StopAll 停止所有 Channels
func (g *GatewayManager) StopAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Debug("Stopping channel", "channel", id)
		if err := c.Stop(); err != nil {
			slog.Error("Error stopping channel", "channel", id, "error", err)
		}
	}
	if g.monitor != nil {
		_ = g.monitor.Stop()
	}
}

// OnMessage 實作 ChannelContext 介面，接收來自 Channel 的文字命令
func (g *GatewayManager) OnMessage(channelID string, msg *api.UnifiedMessage) {
	if msg.InvocationID == "" {
		msg.InvocationID = utils.GenerateID()
	}
	if msg.Session.ChannelID == "" {
		msg.Session.ChannelID = channelID
	}
	slog.Debug("Command received", "channel", channelID, "user", msg.Session.Username, "content", msg.Content, "id", msg.InvocationID)

	if g.processor == nil {
		slog.Warn("No message handler set")
		return
	}
	g.processor.OnMessage(msg)
}

// Dispatch runs one structured request. Remote senders are rate limited
// before the request reaches the registry.
func (g *GatewayManager) Dispatch(ctx context.Context, session api.SessionContext, req api.ToolRequest) *api.Result {
	if monitor.InvocationID(ctx) == "" {
		ctx = monitor.WithInvocationID(ctx, utils.GenerateID())
	}
	remote := session.ChannelID != ConsoleChannelID

	if remote {
		g.notify(session, monitor.TypeRequest, describeRequest(req), false)
	}

	var res *api.Result
	switch {
	case remote && !g.allow(ctx, session):
		slog.WarnContext(ctx, "Rate limit exceeded", "channel", session.ChannelID, "user", session.UserID)
		res = api.ErrorResult(api.ErrRateLimited)
	case g.invoker == nil:
		res = api.ErrorResult(api.UnknownOperation(req.Tool))
	default:
		res = g.invoker.Invoke(ctx, req.Tool, req.Params)
	}

	if remote {
		g.notify(session, monitor.TypeResult, res.Message, !res.OK())
	}
	return res
}

// Catalog lists the registered operations.
func (g *GatewayManager) Catalog() []api.ToolInfo {
	if g.invoker == nil {
		return nil
	}
	return tools.Catalog(g.invoker)
}

// SendReply 統一的回覆介面，透過 Channel 介面送回訊息
func (g *GatewayManager) SendReply(session api.SessionContext, content string) error {
	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}
	return c.Send(session, content)
}

// SendImage pushes a screenshot to channels that can display it; other
// channels silently ignore it.
func (g *GatewayManager) SendImage(session api.SessionContext, path string) error {
	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}
	if ic, ok := c.(api.ImageChannel); ok {
		return ic.SendImage(session, path)
	}
	return nil
}

func (g *GatewayManager) allow(ctx context.Context, session api.SessionContext) bool {
	if g.limiter == nil {
		return true
	}
	return g.limiter.Allow(ctx, session.ChannelID+":"+session.UserID)
}

func (g *GatewayManager) notify(session api.SessionContext, kind, content string, failed bool) {
	if g.monitor == nil {
		return
	}
	g.monitor.OnMessage(monitor.MonitorMessage{
		Timestamp:   time.Now(),
		MessageType: kind,
		ChannelID:   session.ChannelID,
		Username:    session.Username,
		Content:     content,
		Failed:      failed,
	})
}

// describeRequest renders a request in shell syntax for the monitor.
func describeRequest(req api.ToolRequest) string {
	var sb strings.Builder
	sb.WriteString(req.Tool)
	for _, k := range slices.Sorted(maps.Keys(req.Params)) {
		fmt.Fprintf(&sb, " --%s=%v", k, req.Params[k])
	}
	return sb.String()
}

var _ api.ChannelContext = (*GatewayManager)(nil)
