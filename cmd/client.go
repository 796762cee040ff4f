package cmd

import (
	"fmt"

	"github.com/kozaktomas/lora-person/internal/backend"
	"github.com/kozaktomas/lora-person/internal/config"
	"github.com/kozaktomas/lora-person/internal/ingest"
)

// loadConfig loads the environment config and applies the persistent flags.
func loadConfig() *config.Config {
	cfg := config.Load()
	if apiURL != "" {
		cfg.API.URL = apiURL
	}
	if captureDir != "" {
		cfg.API.CaptureDir = captureDir
	}
	return cfg
}

// newClient creates a backend client restricted to the configured content types.
func newClient(cfg *config.Config) (*backend.Client, error) {
	client, err := backend.NewClientWithCapture(cfg.API.URL, cfg.API.Token, cfg.API.CaptureDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	client.SetAllowedContentTypes(cfg.Limits.AllowedContentTypes())
	return client, nil
}

func gateLimits(cfg *config.Config) ingest.Limits {
	return ingest.Limits{MaxAssets: cfg.Limits.MaxAssets, MinForRun: cfg.Limits.MinForRun}
}
