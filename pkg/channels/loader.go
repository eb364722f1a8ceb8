package channels

import (
	"adbtool/pkg/api"
	"adbtool/pkg/config"
	"log/slog"
	"maps"
	"slices"

	jsoniter "github.com/json-iterator/go"
)

// LoadFromConfig builds every configured remote channel. Unknown names and
// channels that fail to initialize are logged and skipped so the local shell
// keeps working.
func LoadFromConfig(configs map[string]jsoniter.RawMessage, system *config.SystemConfig) []api.Channel {
	if system == nil {
		system = config.DefaultSystemConfig()
	}

	var result []api.Channel
	for _, name := range slices.Sorted(maps.Keys(configs)) {
		factory, ok := GetChannelFactory(name)
		if !ok {
			slog.Warn("Unknown channel type", "name", name)
			continue
		}

		channel, err := factory.Create(configs[name], system)
		if err != nil {
			slog.Error("Failed to create channel", "name", name, "error", err)
			continue
		}

		// If Create returns nil (e.g., certain conditions not met but not an error), skip
		if channel == nil {
			continue
		}

		result = append(result, channel)
		slog.Info("Channel registered", "name", name)
	}
	return result
}
