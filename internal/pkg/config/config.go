package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Module provides the loaded configuration to the Fx graph.
var Module = fx.Module("config",
	fx.Provide(
		func() (*Bootstrap, error) {
			configPath := getConfigPath()
			conf, err := Init(configPath)
			if err != nil {
				return nil, err
			}
			return conf, nil
		},
	),
)

// Bootstrap is the whole client configuration.
type Bootstrap struct {
	API     *API     `json:"api"`
	Session *Session `json:"session"`
	Trace   *Trace   `json:"trace"`
	Log     *Log     `json:"log"`
}

// API configures the identity/membership REST endpoint.
type API struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Session configures the token store backend. Backend is one of
// "memory", "sqlite" or "redis"; Path applies to sqlite.
type Session struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
	Redis   *Redis `json:"redis"`
}

// Redis holds connection settings for the redis-backed token store.
type Redis struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Db           int    `json:"db"`
	DialTimeout  int    `json:"dial_timeout"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
}

// Trace configures the OTLP exporter endpoint.
type Trace struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

// Log selects the zap profile.
type Log struct {
	Development bool `json:"development"`
}

// Init loads configuration from a local YAML file.
func Init(configPath string) (*Bootstrap, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	localConf := &Bootstrap{}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Decode the viper settings map with the json tags the structs
	// already carry, so snake_case keys match CamelCase fields.
	m := v.AllSettings()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: nil,
		TagName:  "json",
		Result:   localConf,
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}

	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return localConf, nil
}

// getConfigPath resolves the config file location, preferring the
// CONFIG_PATH environment variable.
func getConfigPath() string {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := home + "/.config/memberflow/config.yaml"
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "configs/config.yaml"
}

// ValidateConfig verifies the sections every command needs.
func ValidateConfig(conf *Bootstrap) error {
	if conf == nil {
		return fmt.Errorf("configuration is nil")
	}

	if conf.API == nil || conf.API.BaseURL == "" {
		return fmt.Errorf("api.base_url configuration is required")
	}

	if conf.Session != nil && conf.Session.Backend == "redis" && conf.Session.Redis == nil {
		return fmt.Errorf("session.redis configuration is required for the redis backend")
	}

	return nil
}
