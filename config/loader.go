package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the global application configuration
var Config AppConfig

// LoadAppConfig loads and validates the application configuration from config.yml
func LoadAppConfig() error {
	paths := []string{"config.yml", "./config/config.yml"}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}
	applyDefaults(&cfg)
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	if cfg.Tracking.TemporaryLossSeconds >= cfg.Tracking.DisconnectedSeconds {
		return fmt.Errorf("tracking: temporaryLossSeconds (%d) must be below disconnectedSeconds (%d)",
			cfg.Tracking.TemporaryLossSeconds, cfg.Tracking.DisconnectedSeconds)
	}
	if cfg.Priority.MediumAfterSeconds >= cfg.Priority.HighAfterSeconds ||
		cfg.Priority.HighAfterSeconds >= cfg.Priority.CriticalAfterSeconds {
		return fmt.Errorf("priority: thresholds must be strictly increasing (medium %d, high %d, critical %d)",
			cfg.Priority.MediumAfterSeconds, cfg.Priority.HighAfterSeconds, cfg.Priority.CriticalAfterSeconds)
	}
	Config = cfg
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16181
	}
	if cfg.Tracking.TemporaryLossSeconds == 0 {
		cfg.Tracking.TemporaryLossSeconds = 120
	}
	if cfg.Tracking.DisconnectedSeconds == 0 {
		cfg.Tracking.DisconnectedSeconds = 300
	}
	if cfg.Tracking.RetentionSeconds == 0 {
		cfg.Tracking.RetentionSeconds = 300
	}
	if cfg.Tracking.SweepIntervalSeconds == 0 {
		cfg.Tracking.SweepIntervalSeconds = 30
	}
	if cfg.Priority.MediumAfterSeconds == 0 {
		cfg.Priority.MediumAfterSeconds = 900
	}
	if cfg.Priority.HighAfterSeconds == 0 {
		cfg.Priority.HighAfterSeconds = 1800
	}
	if cfg.Priority.CriticalAfterSeconds == 0 {
		cfg.Priority.CriticalAfterSeconds = 3600
	}
	if cfg.ETA.FallbackSpeedKMH == 0 {
		cfg.ETA.FallbackSpeedKMH = 40
	}
	if cfg.ETA.DelayToleranceMinutes == 0 {
		cfg.ETA.DelayToleranceMinutes = 5
	}
	if cfg.Panels.Max == 0 {
		cfg.Panels.Max = 20
	}
	if cfg.Panels.DefaultLayout == "" {
		cfg.Panels.DefaultLayout = "auto"
	}
	if cfg.Playback.BaseTickMS == 0 {
		cfg.Playback.BaseTickMS = 1000
	}
	if cfg.Feed.ReadIntervalMS == 0 {
		cfg.Feed.ReadIntervalMS = 15000
	}
	if cfg.Feed.TimeoutMS == 0 {
		cfg.Feed.TimeoutMS = 10000
	}
}
