package web

import (
	"adbtool/pkg/api"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeGateway answers screen_lock and echoes text commands back through the
// channel, the way the command handler does.
type fakeGateway struct {
	ch       *WebChannel
	mu       sync.Mutex
	requests []api.ToolRequest
}

func (g *fakeGateway) OnMessage(_ string, msg *api.UnifiedMessage) {
	_ = g.ch.Send(msg.Session, "成功: "+msg.Content)
}

func (g *fakeGateway) Dispatch(_ context.Context, _ api.SessionContext, req api.ToolRequest) *api.Result {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	switch req.Tool {
	case "screen_lock":
		return api.NewResult("屏幕锁定成功")
	case "tap":
		if _, err := req.Params.Int("x"); err != nil {
			return api.ErrorResult(err)
		}
		return api.NewResult("屏幕点击成功")
	default:
		return api.ErrorResult(api.UnknownOperation(req.Tool))
	}
}

func (g *fakeGateway) Catalog() []api.ToolInfo {
	return []api.ToolInfo{{Name: "screen_lock", Description: "锁定屏幕"}}
}

func (g *fakeGateway) SendReply(api.SessionContext, string) error { return nil }
func (g *fakeGateway) SendImage(api.SessionContext, string) error { return nil }

func newServer(t *testing.T) (*httptest.Server, *WebChannel, *fakeGateway) {
	t.Helper()
	ch := NewWebChannel(WebConfig{})
	gw := &fakeGateway{ch: ch}
	srv := httptest.NewServer(ch.Handler(gw))
	t.Cleanup(srv.Close)
	return srv, ch, gw
}

func TestHTTPRoutes(t *testing.T) {
	srv, _, gw := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"health", http.MethodGet, "/healthz", "", 200, `"status":"ok"`},
		{"catalog", http.MethodGet, "/api/tools", "", 200, `"name":"screen_lock"`},
		{"invoke", http.MethodPost, "/api/tools/screen_lock", "", 200, `"message":"屏幕锁定成功"`},
		{"json params", http.MethodPost, "/api/tools/tap", `{"x": 10, "y": 20}`, 200, `"status":"success"`},
		{"invalid params", http.MethodPost, "/api/tools/tap", `{"y": 20}`, 400, `需要提供x参数`},
		{"unknown", http.MethodPost, "/api/tools/nope", `{}`, 404, `工具不存在: nope`},
		{"bad json", http.MethodPost, "/api/tools/tap", `{"x":`, 400, `"status":"error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			var sb strings.Builder
			buf := make([]byte, 4096)
			for {
				n, err := resp.Body.Read(buf)
				sb.Write(buf[:n])
				if err != nil {
					break
				}
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, sb.String())
			}
			if !strings.Contains(sb.String(), tt.want) {
				t.Fatalf("body %s does not contain %s", sb.String(), tt.want)
			}
		})
	}

	gw.mu.Lock()
	defer gw.mu.Unlock()
	for _, req := range gw.requests {
		if req.Tool == "tap" && req.Params["x"] == float64(10) {
			return
		}
	}
	t.Fatalf("JSON params not forwarded: %+v", gw.requests)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return f
}

func TestWebSocketFrames(t *testing.T) {
	srv, _, _ := newServer(t)
	conn := dial(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"tool":"screen_lock"}`)); err != nil {
		t.Fatal(err)
	}
	f := readFrame(t, conn)
	if f.Type != "result" || f.Tool != "screen_lock" || f.Result == nil || !f.Result.OK() {
		t.Fatalf("unexpected frame %+v", f)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("screen_lock")); err != nil {
		t.Fatal(err)
	}
	f = readFrame(t, conn)
	if f.Type != "text" || f.Text != "成功: screen_lock" {
		t.Fatalf("unexpected frame %+v", f)
	}
}

func TestSendImage(t *testing.T) {
	srv, ch, _ := newServer(t)
	conn := dial(t, srv)

	// Wait for the server side to register the connection.
	var session api.SessionContext
	deadline := time.Now().Add(5 * time.Second)
	for session.UserID == "" && time.Now().Before(deadline) {
		ch.mu.RLock()
		for id := range ch.connections {
			session = api.SessionContext{ChannelID: "web", UserID: id}
		}
		ch.mu.RUnlock()
		time.Sleep(10 * time.Millisecond)
	}

	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ch.SendImage(session, path); err != nil {
		t.Fatalf("SendImage() error = %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "image" || f.Mime != "image/png" || f.Data != "iVBORw0KGgo=" {
		t.Fatalf("unexpected frame %+v", f)
	}

	if err := ch.Send(api.SessionContext{UserID: "gone"}, "x"); err == nil {
		t.Fatal("unknown session must fail")
	}
}
