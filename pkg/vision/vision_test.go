package vision

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type stubFactory struct {
	keyed   bool
	created *Options
}

func (f *stubFactory) Create(opts Options, _ *config.SystemConfig) (api.VisionBackend, error) {
	f.created = &opts
	return stubBackend{}, nil
}

func (f *stubFactory) RequiresAPIKey() bool { return f.keyed }

type stubBackend struct{}

func (stubBackend) Describe(context.Context, string, string) (string, error) { return "ok", nil }

func TestNewFromConfig(t *testing.T) {
	keyed := &stubFactory{keyed: true}
	RegisterProvider("stub-keyed", keyed)
	RegisterProvider("stub-local", &stubFactory{})

	_, err := NewFromConfig(config.VisionConfig{Provider: "stub-keyed"}, nil)
	if !errors.Is(err, api.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable without key, got %v", err)
	}

	temp := 0.1
	b, err := NewFromConfig(config.VisionConfig{
		Provider: "stub-keyed", APIKey: "k", Model: "m", Temperature: &temp,
	}, &config.SystemConfig{VisionTimeoutMs: 1500, DebugVision: true})
	if err != nil || b == nil {
		t.Fatalf("NewFromConfig() = %v, %v", b, err)
	}
	got := *keyed.created
	if got.SystemPrompt != DefaultSystemPrompt || got.MaxTokens != config.DefaultMaxTokens {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.Temperature != 0.1 || got.Timeout != 1500*time.Millisecond || !got.Debug {
		t.Errorf("options not carried: %+v", got)
	}

	if _, err := NewFromConfig(config.VisionConfig{Provider: "stub-local"}, nil); err != nil {
		t.Fatalf("keyless provider must not need a key: %v", err)
	}
	if _, err := NewFromConfig(config.VisionConfig{Provider: "nope"}, nil); err == nil {
		t.Fatal("unknown provider must fail")
	}
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := LoadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(img.DataURL(), "data:image/png;base64,iVBORw0KGgo") {
		t.Fatalf("unexpected data url %q", img.DataURL())
	}

	_, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, api.ErrBackendError) {
		t.Fatalf("expected ErrBackendError, got %v", err)
	}
}

func TestResponseDebugger(t *testing.T) {
	dir := t.TempDir()
	d := &ResponseDebugger{dir: filepath.Join(dir, "openai"), enabled: true}
	d.Dump(context.Background(), []byte(`{"ok":true}`))

	entries, err := os.ReadDir(filepath.Join(dir, "openai"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one dump, got %v (%v)", entries, err)
	}

	off := &ResponseDebugger{dir: filepath.Join(dir, "off")}
	off.Dump(context.Background(), []byte("x"))
	if _, err := os.Stat(filepath.Join(dir, "off")); !os.IsNotExist(err) {
		t.Fatal("disabled debugger must not write")
	}
}
