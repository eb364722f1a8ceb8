package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Environment variables consulted between command-line flags and the config file.
const (
	EnvDeviceID   = "DEVICE_ID"
	EnvADBPath    = "ADB_PATH"
	EnvProvider   = "VISION_PROVIDER"
	EnvAPIKey     = "OPENAI_API_KEY"
	EnvModel      = "VISION_MODEL"
	EnvAPIBaseURL = "API_BASE_URL"
)

// Defaults applied to settings left empty by every other source.
const (
	DefaultProvider   = "openai"
	DefaultModel      = "qwen2.5-vl-7b-instruct"
	DefaultAPIBaseURL = "https://api.openai.com/v1"
	DefaultMaxTokens  = 1000
	DefaultTemp       = 0.7
)

// ErrMissingDeviceID is returned by Validate when no source named a device.
var ErrMissingDeviceID = errors.New("未指定设备ID，请使用 --device-id 参数或设置 DEVICE_ID 环境变量")

// Config defines the application configuration.
// This structure maps directly to config.json (or config.yaml) and holds the
// device binding, the vision backend and the optional remote channels.
type Config struct {
	Device DeviceConfig `json:"device"`
	Vision VisionConfig `json:"vision"`
	// Channels contains a map of channel identifiers (e.g., "telegram", "web")
	// to their specific configuration payloads in raw JSON format.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
}

// DeviceConfig selects the device and the adb binary used to reach it.
type DeviceConfig struct {
	ID        string `json:"id"`
	ADBPath   string `json:"adb_path"`
	RemoteDir string `json:"remote_dir"` // device directory for temporary screenshots
}

// VisionConfig configures the screenshot description backend.
type VisionConfig struct {
	Provider     string   `json:"provider"`
	APIKey       string   `json:"api_key"`
	Model        string   `json:"model"`
	BaseURL      string   `json:"base_url"`
	SystemPrompt string   `json:"system_prompt"`
	MaxTokens    int      `json:"max_tokens"`
	Temperature  *float64 `json:"temperature"`
}

// ApplyEnv overrides file values with the environment variables that are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for env, dst := range c.bindings() {
		if v, ok := lookup(env); ok && v != "" {
			*dst = v
		}
	}
}

// bindings maps each environment variable to the field it resolves.
func (c *Config) bindings() map[string]*string {
	return map[string]*string{
		EnvDeviceID:   &c.Device.ID,
		EnvADBPath:    &c.Device.ADBPath,
		EnvProvider:   &c.Vision.Provider,
		EnvAPIKey:     &c.Vision.APIKey,
		EnvModel:      &c.Vision.Model,
		EnvAPIBaseURL: &c.Vision.BaseURL,
	}
}

// ApplyDefaults fills every setting that is still empty.
func (c *Config) ApplyDefaults(defaultADBPath string) {
	if c.Device.ADBPath == "" {
		c.Device.ADBPath = defaultADBPath
	}
	if c.Vision.Provider == "" {
		c.Vision.Provider = DefaultProvider
	}
	// Other providers pick their own model and endpoint defaults.
	if c.Vision.Provider == DefaultProvider {
		if c.Vision.Model == "" {
			c.Vision.Model = DefaultModel
		}
		if c.Vision.BaseURL == "" {
			c.Vision.BaseURL = DefaultAPIBaseURL
		}
	}
	if c.Vision.MaxTokens <= 0 {
		c.Vision.MaxTokens = DefaultMaxTokens
	}
	if c.Vision.Temperature == nil {
		t := DefaultTemp
		c.Vision.Temperature = &t
	}
}

// Validate ensures the resolved configuration can drive a device.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Device.ID) == "" {
		return ErrMissingDeviceID
	}
	return nil
}

// SystemConfig defines engine-level technical parameters.
// These settings are usually stored in system.json and may be edited while
// the process runs; only LogLevel is re-applied on change.
type SystemConfig struct {
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
	// CommandTimeoutMs bounds a single adb command. 0 disables the timeout.
	CommandTimeoutMs int `json:"command_timeout_ms"`
	// VisionTimeoutMs bounds one vision backend request.
	VisionTimeoutMs int `json:"vision_timeout_ms"`
	// OllamaDefaultURL is used by the ollama provider when no base_url is set.
	OllamaDefaultURL string `json:"ollama_default_url"`
	// RateLimit and RateBurst configure the per-user token bucket of remote channels.
	RateLimit int `json:"rate_limit"`
	RateBurst int `json:"rate_burst"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message. Longer replies are split into multiple chunks.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// Monitor echoes remote channel traffic to the console.
	Monitor bool `json:"monitor"`
	// Trace enables the stdout OpenTelemetry exporter.
	Trace bool `json:"trace"`
	// DebugVision saves every raw vision response under debug/vision.
	DebugVision bool `json:"debug_vision"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with hardcoded
// safe default values. This is used as a fallback when the system.json file
// is missing or corrupt.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		LogLevel:             "info",
		CommandTimeoutMs:     30000,
		VisionTimeoutMs:      120000,
		OllamaDefaultURL:     "http://localhost:11434",
		RateLimit:            5,
		RateBurst:            10,
		TelegramMessageLimit: 4000,
		Monitor:              true,
	}
}

// Load reads the application config at path. A missing file yields an empty
// config unless required is set (the user named the file explicitly).
// Files ending in .yaml or .yml are parsed as YAML, anything else as JSON;
// both are validated against the embedded schema.
func Load(path string, required bool) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	doc, err := normalize(path, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return &cfg, nil
}

// normalize converts a YAML or JSON document into canonical JSON bytes.
func normalize(path string, raw []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if doc == nil {
			doc = map[string]any{}
		}
		return json.Marshal(doc)
	default:
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return raw, nil
	}
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	doc, err := normalize(path, file)
	if err != nil {
		return cfg // Parse failed, use defaults
	}
	if err := json.Unmarshal(doc, cfg); err != nil {
		return DefaultSystemConfig()
	}
	return cfg
}
