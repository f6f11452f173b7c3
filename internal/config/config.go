// Package config loads engine-wide settings from a YAML file.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/blockwisedb/blockwise/internal/bufferpool"
)

// EngineConfig is the root of the engine's YAML configuration.
type EngineConfig struct {
	Storage struct {
		DataDir  string `mapstructure:"data_dir"`
		PageSize int    `mapstructure:"page_size"`
	} `mapstructure:"storage"`

	BufferPool struct {
		NumFrames int    `mapstructure:"num_frames"`
		Strategy  string `mapstructure:"strategy"`
	} `mapstructure:"buffer_pool"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Default returns the settings the engine uses when no config file is
// supplied.
func Default() *EngineConfig {
	cfg := &EngineConfig{}
	cfg.Storage.DataDir = "."
	cfg.Storage.PageSize = 8192
	cfg.BufferPool.NumFrames = 64
	cfg.BufferPool.Strategy = "fifo"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads a YAML file at path and unmarshals it into an EngineConfig,
// seeded with Default() so an incomplete file still yields usable settings.
func Load(path string) (*EngineConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

// ReplacerStrategy maps the configured strategy name to a
// bufferpool.Strategy, defaulting to FIFO for an empty or unrecognized
// value.
func (c *EngineConfig) ReplacerStrategy() bufferpool.Strategy {
	switch c.BufferPool.Strategy {
	case "lru":
		return bufferpool.LRU
	case "clock":
		return bufferpool.CLOCK
	case "lruk":
		return bufferpool.LRUK
	default:
		return bufferpool.FIFO
	}
}
