package config

import (
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	Server              string `mapstructure:"server"`
	Monitoring          bool   `mapstructure:"monitoring"`
	MonitoringPort      int    `mapstructure:"monitoring_port"`
	MonitoringListener  string `mapstructure:"monitoring_listener"`
	LogLevel            string `mapstructure:"log_level"`
	LogFormat           string `mapstructure:"log_format"`
	LogFile             string `mapstructure:"log_file"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	ManifestTTLHours    int    `mapstructure:"manifest_ttl_hours"`
	HostnameOverride    string `mapstructure:"hostname_override"`
}

func Default() *Config {
	return &Config{
		MonitoringPort:      8037,
		MonitoringListener:  "127.0.0.1",
		LogLevel:            "critical",
		LogFormat:           "text",
		PollIntervalSeconds: 50,
		ManifestTTLHours:    6,
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PATCHBAY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configDir() string {
	switch runtime.GOOS {
	case "freebsd":
		return filepath.Join("/usr/local/etc", "patchbay")
	default:
		return "/etc/patchbay"
	}
}
