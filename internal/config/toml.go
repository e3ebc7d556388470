// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/fnlayer/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Classifier ClassifierConfig `toml:"classifier"`
	Engine     EngineConfig     `toml:"engine"`
	Log        LogConfig        `toml:"log"`
}

// ClassifierConfig maps gesture thresholds.
type ClassifierConfig struct {
	MinHoldCycles        *int  `toml:"min-hold-cycles"`
	MaxDoubleClickCycles *int  `toml:"max-double-click-cycles"`
	DoubleClickLatch     *bool `toml:"double-click-latch"`
}

// EngineConfig maps driver settings.
type EngineConfig struct {
	// CyclePeriod is a Go duration string such as "1ms"; "0" runs unpaced.
	CyclePeriod *string `toml:"cycle-period"`
	Keymap      *string `toml:"keymap"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c FileConfig) validate() error {
	if v := c.Classifier.MinHoldCycles; v != nil && *v < 1 {
		return fmt.Errorf("classifier.min-hold-cycles must be at least 1")
	}
	if v := c.Classifier.MaxDoubleClickCycles; v != nil && *v < 1 {
		return fmt.Errorf("classifier.max-double-click-cycles must be at least 1")
	}
	if v := c.Engine.CyclePeriod; v != nil {
		if _, err := ParsePeriod(*v); err != nil {
			return fmt.Errorf("engine.cycle-period: %w", err)
		}
	}
	if v := c.Log.Level; v != nil {
		if _, err := logrus.ParseLevel(*v); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

// ParsePeriod parses a cycle period. Negative periods are rejected.
func ParsePeriod(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("period must not be negative: %s", s)
	}
	return d, nil
}

// Defaults returns the built-in settings.
func Defaults() model.Config {
	return model.Config{
		MinHoldCycles:        40,
		MaxDoubleClickCycles: 40,
		CyclePeriod:          time.Millisecond,
		KeymapPath:           DefaultKeymapPath(),
		LogLevel:             "info",
	}
}
