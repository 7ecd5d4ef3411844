// Package config loads training settings from an optional config file
// (yaml, toml or json), with defaults matching the model package.
// Command-line flags take precedence over file values.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Settings struct {
	Input string `mapstructure:"input"`
	Model string `mapstructure:"model"`

	Mode     string  `mapstructure:"mode"`
	Dim      uint32  `mapstructure:"dim"`
	Window   int     `mapstructure:"window"`
	Epochs   int     `mapstructure:"epochs"`
	Alpha    float64 `mapstructure:"alpha"`
	MinAlpha float64 `mapstructure:"min_alpha"`
	MinCount uint32  `mapstructure:"min_count"`
	Sample   float64 `mapstructure:"sample"`
	HS       bool    `mapstructure:"hs"`
	Negative int     `mapstructure:"negative"`
	Workers  int     `mapstructure:"workers"`
	Seed     int64   `mapstructure:"seed"`
}

// Load reads the settings file at path. An empty path yields defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetDefault("mode", "dbow")
	v.SetDefault("dim", 100)
	v.SetDefault("window", 5)
	v.SetDefault("epochs", 10)
	v.SetDefault("alpha", 0.025)
	v.SetDefault("min_alpha", 0.0001)
	v.SetDefault("min_count", 5)
	v.SetDefault("sample", 0.0)
	v.SetDefault("hs", false)
	v.SetDefault("negative", 5)
	v.SetDefault("workers", 0)
	v.SetDefault("seed", 1)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "config: read")
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "config: unmarshal")
	}
	return &s, nil
}
