// Package settings loads daemon settings with viper.
package settings

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings are the daemon-level knobs shared by all server roles. They
// describe where the exporter and its configuration live, not what the
// operations do.
type Settings struct {
	Exporter ExporterSettings
	Config   ConfigSettings
	History  HistorySettings
}

// ExporterSettings locates the metrics exporter and its systemd units.
type ExporterSettings struct {
	Host         string
	Port         int
	MetricsPath  string
	Unit         string
	Dependencies []string
}

// ConfigSettings locates the persisted MCP configuration document.
type ConfigSettings struct {
	Path string
}

// HistorySettings locates the health-report history database.
type HistorySettings struct {
	DatabasePath string
}

// Load reads settings from an optional config file and the environment.
// Defaults match the exporter's own defaults.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("geodiag")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/geodiag")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	v.SetEnvPrefix("GEODIAG")
	// Nested keys map to underscored env names: exporter.host becomes
	// GEODIAG_EXPORTER_HOST.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("exporter.host", "127.0.0.1")
	v.SetDefault("exporter.port", 9090)
	v.SetDefault("exporter.metricspath", "/metrics")
	v.SetDefault("exporter.unit", "geoclue-exporter.service")
	v.SetDefault("exporter.dependencies", []string{"dbus.service", "geoclue.service"})
	v.SetDefault("config.path", "/etc/geodiag/mcp-config.json")
	v.SetDefault("history.databasepath", "/var/lib/geodiag/history.db")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
