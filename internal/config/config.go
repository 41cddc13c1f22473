// Package config loads runtime settings for the scraper node via Viper.
//
// The job itself is configured by the orchestrator's job file (see
// internal/jobfile). These settings are operator knobs read from
// SCRAPER_* environment variables and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings captures the runtime knobs of a scraper node.
type Settings struct {
	// BulkSize overrides the node's batch size when > 0.
	BulkSize int `mapstructure:"bulk_size"`
	// StopFile is the sentinel file name inside the output folder.
	StopFile string `mapstructure:"stop_file"`
	// PollInterval is how often the sentinel is checked.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// CancelGrace bounds how long business logic may ignore cancellation.
	CancelGrace time.Duration `mapstructure:"cancel_grace"`
	// MetricsTextfile, when set, receives Prometheus metrics at exit.
	MetricsTextfile string `mapstructure:"metrics_textfile"`
	// LogDevelopment switches the bootstrap stderr logger to development mode.
	LogDevelopment bool `mapstructure:"log_development"`
}

// Load builds Settings from defaults, an optional file at path and the
// environment.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bulk_size", 0)
	v.SetDefault("stop_file", "STOP")
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("cancel_grace", "10s")
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("log_development", false)
}

// Validate enforces required values and reasonable limits.
func (s Settings) Validate() error {
	if s.BulkSize < 0 {
		return fmt.Errorf("bulk_size must be >= 0")
	}
	if strings.TrimSpace(s.StopFile) == "" || strings.ContainsAny(s.StopFile, `/\`) {
		return fmt.Errorf("stop_file must be a plain file name")
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be > 0")
	}
	if s.CancelGrace < 0 {
		return fmt.Errorf("cancel_grace must be >= 0")
	}
	return nil
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		StopFile:     "STOP",
		PollInterval: time.Second,
		CancelGrace:  10 * time.Second,
	}
}
