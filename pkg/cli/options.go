package cli

import (
	"adbtool/pkg/config"
	"adbtool/pkg/device"

	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by the shell and the mcp command.
type options struct {
	deviceID   string
	adbPath    string
	provider   string
	apiKey     string
	model      string
	baseURL    string
	configPath string
	systemPath string
}

func (o *options) bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.deviceID, "device-id", "d", "", "设备ID (环境变量 "+config.EnvDeviceID+")")
	pf.StringVarP(&o.adbPath, "adb-path", "a", "", "ADB可执行文件路径 (默认 "+device.DefaultADBPath+")")
	pf.StringVarP(&o.provider, "provider", "p", "", "视觉服务提供方: openai, gemini, ollama")
	pf.StringVarP(&o.apiKey, "api-key", "k", "", "视觉服务API密钥 (环境变量 "+config.EnvAPIKey+")")
	pf.StringVarP(&o.model, "model-name", "m", "", "视觉模型名称 (默认 "+config.DefaultModel+")")
	pf.StringVarP(&o.baseURL, "api-base-url", "u", "", "视觉服务API地址 (默认 "+config.DefaultAPIBaseURL+")")
	pf.StringVarP(&o.configPath, "config", "c", "config.json", "配置文件 (.json / .yaml)")
	pf.StringVar(&o.systemPath, "system-config", "system.json", "系统参数文件")
}

// resolve merges every source, highest first: flag, environment, config
// file, default. The config file is only required when named explicitly.
func (o *options) resolve(cmd *cobra.Command, lookup func(string) (string, bool)) (*config.Config, *config.SystemConfig, error) {
	cfg, err := config.Load(o.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyEnv(lookup)
	o.applyFlags(cmd, cfg)
	cfg.ApplyDefaults(device.DefaultADBPath)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, config.LoadSystemConfig(o.systemPath), nil
}

// applyFlags copies the flags the user actually set. An empty value counts
// as unset, like an empty environment variable.
func (o *options) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	bindings := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"device-id", o.deviceID, &cfg.Device.ID},
		{"adb-path", o.adbPath, &cfg.Device.ADBPath},
		{"provider", o.provider, &cfg.Vision.Provider},
		{"api-key", o.apiKey, &cfg.Vision.APIKey},
		{"model-name", o.model, &cfg.Vision.Model},
		{"api-base-url", o.baseURL, &cfg.Vision.BaseURL},
	}
	for _, b := range bindings {
		if cmd.Flags().Changed(b.flag) && b.value != "" {
			*b.dst = b.value
		}
	}
}
