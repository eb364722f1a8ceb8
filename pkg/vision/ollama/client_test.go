package ollama

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"adbtool/pkg/vision"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDescribe(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"model":"llava","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"一只猫"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	backend, err := (&OllamaFactory{}).Create(vision.Options{
		BaseURL:      srv.URL,
		Model:        "llava",
		SystemPrompt: vision.DefaultSystemPrompt,
		MaxTokens:    1000,
		Temperature:  0.7,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	text, err := backend.Describe(context.Background(), writePNG(t), "这是什么")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if text != "一只猫" {
		t.Fatalf("Describe() = %q", text)
	}
	if req["model"] != "llava" || req["stream"] != false {
		t.Errorf("unexpected request %v", req)
	}
	msgs, _ := req["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %v", req["messages"])
	}
	user, _ := msgs[1].(map[string]any)
	if images, _ := user["images"].([]any); len(images) != 1 {
		t.Errorf("expected one image, got %v", user["images"])
	}
}

func TestDescribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llava' not found"}`))
	}))
	defer srv.Close()

	backend, err := NewOllamaClient(vision.Options{BaseURL: srv.URL, Model: "llava"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := backend.Describe(context.Background(), writePNG(t), "p"); !errors.Is(err, api.ErrBackendError) {
		t.Fatalf("expected ErrBackendError, got %v", err)
	}
}

func TestFactoryDefaults(t *testing.T) {
	b, err := (&OllamaFactory{}).Create(vision.Options{}, config.DefaultSystemConfig())
	if err != nil {
		t.Fatal(err)
	}
	c := b.(*OllamaClient)
	if c.opts.BaseURL != "http://localhost:11434" || c.opts.Model != defaultModel {
		t.Fatalf("defaults not applied: %+v", c.opts)
	}
	if _, err := NewOllamaClient(vision.Options{BaseURL: "::bad"}); err == nil {
		t.Fatal("invalid base url must fail")
	}
}
