package web

import (
	"adbtool/pkg/api"
	"adbtool/pkg/utils"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for decoupled UI
	},
}

const maxBodyBytes = 1 << 20

type WebConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"` // Default: 9453
}

// Frame is a message pushed to WebSocket clients.
type Frame struct {
	Type   string      `json:"type"` // text, image or result
	Text   string      `json:"text,omitempty"`
	Tool   string      `json:"tool,omitempty"`
	Result *api.Result `json:"result,omitempty"`
	Mime   string      `json:"mime,omitempty"`
	Data   string      `json:"data,omitempty"` // Base64 encoded image
}

type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteMessage(messageType int, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteMessage(messageType, data)
}

func (sc *SafeConn) writeFrame(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	return sc.WriteMessage(websocket.TextMessage, data)
}

// WebChannel exposes the registry over HTTP and WebSocket.
type WebChannel struct {
	config      WebConfig
	server      *http.Server
	ctx         api.ChannelContext
	connections map[string]*SafeConn // Map UserID -> WS Connection
	mu          sync.RWMutex
}

func NewWebChannel(cfg WebConfig) *WebChannel {
	return &WebChannel{
		config:      cfg,
		connections: make(map[string]*SafeConn),
	}
}

func (c *WebChannel) ID() string {
	return "web"
}

// Handler builds the HTTP routes served for ctx.
//
//	GET  /healthz
//	GET  /api/tools
//	POST /api/tools/:name
//	GET  /ws
func (c *WebChannel) Handler(ctx api.ChannelContext) http.Handler {
	c.ctx = ctx

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.GET("/healthz", c.handleHealth)
	e.GET("/api/tools", c.handleCatalog)
	e.POST("/api/tools/:name", c.handleInvoke)
	e.GET("/ws", c.handleWebSocket)

	return otelhttp.NewHandler(e, "adbtool-web")
}

func (c *WebChannel) Start(ctx api.ChannelContext) error {
	port := c.config.Port
	if port == 0 {
		port = 9453
	}
	addr := fmt.Sprintf("%s:%d", c.config.Host, port)
	c.server = &http.Server{
		Addr:              addr,
		Handler:           c.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Web API listening", "addr", addr)

	go func() {
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Web API server error", "error", err)
		}
	}()

	return nil
}

func (c *WebChannel) Stop() error {
	if c.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}

func (c *WebChannel) Send(session api.SessionContext, message string) error {
	conn, err := c.conn(session)
	if err != nil {
		return err
	}
	return conn.writeFrame(Frame{Type: "text", Text: message})
}

// SendImage pushes the screenshot at path to a WebSocket client.
func (c *WebChannel) SendImage(session api.SessionContext, path string) error {
	conn, err := c.conn(session)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	return conn.writeFrame(Frame{
		Type: "image",
		Mime: utils.ImageMimeType(data),
		Data: base64.StdEncoding.EncodeToString(data),
	})
}

func (c *WebChannel) conn(session api.SessionContext) (*SafeConn, error) {
	c.mu.RLock()
	conn, ok := c.connections[session.UserID]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("web user %s not connected", session.UserID)
	}
	return conn, nil
}

func (c *WebChannel) handleHealth(ec echo.Context) error {
	return ec.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (c *WebChannel) handleCatalog(ec echo.Context) error {
	return ec.JSON(http.StatusOK, c.ctx.Catalog())
}

func (c *WebChannel) handleInvoke(ec echo.Context) error {
	body, err := io.ReadAll(http.MaxBytesReader(ec.Response(), ec.Request().Body, maxBodyBytes))
	if err != nil {
		return ec.JSON(http.StatusRequestEntityTooLarge, api.ErrorResult(api.InvalidParameters("请求体过大")))
	}

	params := api.Params{}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			res := api.ErrorResult(api.InvalidParameters("请求体不是有效的JSON对象: %v", err))
			return ec.JSON(http.StatusBadRequest, res)
		}
	}

	session := api.SessionContext{
		ChannelID: c.ID(),
		UserID:    ec.RealIP(),
		ChatID:    "http",
		Username:  "http:" + ec.RealIP(),
	}
	res := c.ctx.Dispatch(ec.Request().Context(), session, api.ToolRequest{Tool: ec.Param("name"), Params: params})
	return ec.JSON(api.HTTPStatus(res.Err), res)
}

func (c *WebChannel) handleWebSocket(ec echo.Context) error {
	rawConn, err := upgrader.Upgrade(ec.Response(), ec.Request(), nil)
	if err != nil {
		slog.Error("WS Upgrade failed", "error", err)
		return nil
	}

	// Wrap connection
	conn := &SafeConn{Conn: rawConn}
	userID := uuid.NewString()

	// Register connection
	c.mu.Lock()
	c.connections[userID] = conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.connections, userID)
		c.mu.Unlock()
		conn.Close()
	}()

	// Init Session Context
	session := api.SessionContext{
		ChannelID: c.ID(),
		UserID:    userID,
		ChatID:    userID,
		Username:  "ws:" + ec.RealIP(),
	}
	slog.Debug("WebSocket client connected", "user", userID, "remote", ec.RealIP())

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		// JSON frames are structured requests, anything else is a shell line
		var req api.ToolRequest
		if err := json.Unmarshal(msgBytes, &req); err == nil && req.Tool != "" {
			res := c.ctx.Dispatch(context.Background(), session, req)
			if err := conn.writeFrame(Frame{Type: "result", Tool: req.Tool, Result: res}); err != nil {
				break
			}
			continue
		}

		c.ctx.OnMessage(c.ID(), &api.UnifiedMessage{
			Session: session,
			Content: string(msgBytes),
		})
	}
	return nil
}

var _ api.ImageChannel = (*WebChannel)(nil)
