package main

import (
	"time"

	"fractalforest/internal/config"
)

// loadConfig reads the config file. The returned config is always usable;
// the error only reports why the file could not be applied.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, err
}

func initialDelay(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Playback.InitialDelayMS) * time.Millisecond
}
