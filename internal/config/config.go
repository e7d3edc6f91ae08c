// Package config loads process configuration from config.yaml with
// environment overrides (ORDERBOOK_DATA_DIR covers data_dir, and so on).
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	// DataDir holds snapshots, journals and the id seed.
	DataDir string `mapstructure:"data_dir"`
	// CommandFile is a file of commands to execute, one per line. Empty
	// means read commands from stdin.
	CommandFile string `mapstructure:"command_file"`
	// Console mirrors journal entries to stdout.
	Console bool `mapstructure:"console"`
}

// Load reads config.yaml from the given paths. A missing file is fine; the
// defaults and environment are enough to run.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")

	v.SetDefault("data_dir", "./data")
	v.SetDefault("command_file", "")
	v.SetDefault("console", true)

	v.SetEnvPrefix("ORDERBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
