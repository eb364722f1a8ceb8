package openailm

import (
	"adbtool/pkg/api"
	"adbtool/pkg/vision"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(baseURL string) vision.Options {
	return vision.Options{
		APIKey:       "sk-test",
		Model:        "qwen2.5-vl-7b-instruct",
		BaseURL:      baseURL,
		SystemPrompt: vision.DefaultSystemPrompt,
		MaxTokens:    1000,
		Temperature:  0.7,
	}
}

const completion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "qwen2.5-vl-7b-instruct",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "设置页面，顶部有搜索栏"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestDescribe(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion))
	}))
	defer srv.Close()

	c := NewClient(testOptions(srv.URL + "/v1"))
	text, err := c.Describe(context.Background(), writePNG(t), "描述这个界面")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if text != "设置页面，顶部有搜索栏" {
		t.Fatalf("Describe() = %q", text)
	}

	if body["model"] != "qwen2.5-vl-7b-instruct" || body["max_tokens"] != float64(1000) || body["temperature"] != 0.7 {
		t.Errorf("unexpected request parameters: %v", body)
	}
	raw, _ := json.Marshal(body["messages"])
	msgs := string(raw)
	for _, want := range []string{vision.DefaultSystemPrompt, "描述这个界面", "data:image/png;base64,"} {
		if !strings.Contains(msgs, want) {
			t.Errorf("messages missing %q: %s", want, msgs)
		}
	}
}

func TestDescribeWithoutKey(t *testing.T) {
	opts := testOptions("http://127.0.0.1:0")
	opts.APIKey = ""
	_, err := NewClient(opts).Describe(context.Background(), writePNG(t), "p")
	if !errors.Is(err, api.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestDescribeServerErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(testOptions(srv.URL)).Describe(context.Background(), writePNG(t), "p")
	if !errors.Is(err, api.ErrBackendError) {
		t.Fatalf("expected ErrBackendError, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single request, got %d", hits.Load())
	}
}

func TestDescribeMissingImage(t *testing.T) {
	_, err := NewClient(testOptions("http://127.0.0.1:0")).Describe(context.Background(), "/nonexistent.png", "p")
	if !errors.Is(err, api.ErrBackendError) {
		t.Fatalf("expected ErrBackendError, got %v", err)
	}
}
