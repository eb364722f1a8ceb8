package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"device": {"id": "emulator-5554", "adb_path": "/opt/adb"},
		"vision": {"provider": "gemini", "model": "gemini-2.5-flash", "temperature": 0.2},
		"channels": {"web": {"port": 9000}}
	}`)
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.ID != "emulator-5554" || cfg.Device.ADBPath != "/opt/adb" {
		t.Fatalf("device = %+v", cfg.Device)
	}
	if cfg.Vision.Provider != "gemini" || *cfg.Vision.Temperature != 0.2 {
		t.Fatalf("vision = %+v", cfg.Vision)
	}
	if _, ok := cfg.Channels["web"]; !ok {
		t.Fatal("web channel config missing")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
device:
  id: R58M
vision:
  provider: ollama
  model: llava
  max_tokens: 512
channels:
  telegram:
    token: "123:abc"
    allowed_users: [42]
`)
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Device.ID != "R58M" || cfg.Vision.MaxTokens != 512 || cfg.Vision.Provider != "ollama" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if string(cfg.Channels["telegram"]) == "" {
		t.Fatal("telegram channel config missing")
	}
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"unknown top-level key":  `{"devices": {}}`,
		"unknown provider":       `{"vision": {"provider": "claude"}}`,
		"wrong type":             `{"vision": {"max_tokens": "many"}}`,
		"telegram without token": `{"channels": {"telegram": {}}}`,
		"relative remote dir":    `{"device": {"remote_dir": "sdcard"}}`,
		"malformed json":         `{"device": `,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, "config.json", doc), true); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.json")
	cfg, err := Load(missing, false)
	if err != nil || cfg == nil {
		t.Fatalf("optional missing file: cfg=%v err=%v", cfg, err)
	}
	if _, err := Load(missing, true); err == nil {
		t.Fatal("required missing file must fail")
	}
}

func TestResolutionOrder(t *testing.T) {
	cfg := &Config{
		Device: DeviceConfig{ID: "from-file", ADBPath: "/file/adb"},
		Vision: VisionConfig{Model: "file-model"},
	}
	env := map[string]string{
		EnvDeviceID: "from-env",
		EnvModel:    "",
		EnvAPIKey:   "sk-env",
	}
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	cfg.ApplyDefaults("adb")

	if cfg.Device.ID != "from-env" {
		t.Errorf("env must override file: %q", cfg.Device.ID)
	}
	if cfg.Device.ADBPath != "/file/adb" {
		t.Errorf("file must override default: %q", cfg.Device.ADBPath)
	}
	if cfg.Vision.Model != "file-model" {
		t.Errorf("empty env must not override file: %q", cfg.Vision.Model)
	}
	if cfg.Vision.APIKey != "sk-env" {
		t.Errorf("api key = %q", cfg.Vision.APIKey)
	}
	if cfg.Vision.Provider != DefaultProvider || cfg.Vision.BaseURL != DefaultAPIBaseURL {
		t.Errorf("defaults not applied: %+v", cfg.Vision)
	}
	if cfg.Vision.MaxTokens != DefaultMaxTokens || *cfg.Vision.Temperature != DefaultTemp {
		t.Errorf("defaults not applied: %+v", cfg.Vision)
	}
}

func TestValidate(t *testing.T) {
	if err := (&Config{}).Validate(); !errors.Is(err, ErrMissingDeviceID) {
		t.Fatalf("expected ErrMissingDeviceID, got %v", err)
	}
	if err := (&Config{Device: DeviceConfig{ID: "x"}}).Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadSystemConfig(t *testing.T) {
	cfg := LoadSystemConfig(filepath.Join(t.TempDir(), "missing.json"))
	if *cfg != *DefaultSystemConfig() {
		t.Fatalf("missing file must yield defaults, got %+v", cfg)
	}

	path := writeFile(t, "system.json", `{"log_level": "debug", "rate_limit": 1}`)
	cfg = LoadSystemConfig(path)
	if cfg.LogLevel != "debug" || cfg.RateLimit != 1 || cfg.RateBurst != 10 {
		t.Fatalf("partial file must merge with defaults, got %+v", cfg)
	}

	bad := writeFile(t, "system.json", `{"log_level": 3}`)
	if got := LoadSystemConfig(bad); *got != *DefaultSystemConfig() {
		t.Fatalf("bad file must yield defaults, got %+v", got)
	}
}

func TestWatchSystemConfig(t *testing.T) {
	path := writeFile(t, "system.json", `{"log_level": "info"}`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 4)
	go WatchSystemConfig(ctx, path, func(c *SystemConfig) { got <- c.LogLevel })

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"log_level": "debug"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case level := <-got:
		if level != "debug" {
			t.Fatalf("reloaded level = %q", level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}
