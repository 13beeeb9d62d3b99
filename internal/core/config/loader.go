package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/marketwatch/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Chain.Flavor == "" {
		cfg.Chain.Flavor = domain.FlavorStandard
	}
	if cfg.Chain.BlocksBatchSize == 0 {
		cfg.Chain.BlocksBatchSize = 3000
	}
	if cfg.Chain.Sync.CheckInterval == 0 {
		cfg.Chain.Sync.CheckInterval = 60 * time.Second
	}
	if cfg.Chain.Sync.OutOfSyncThreshold == 0 {
		cfg.Chain.Sync.OutOfSyncThreshold = 5
	}
	if cfg.Notify.HeartbeatInterval == 0 {
		cfg.Notify.HeartbeatInterval = 30 * time.Second
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Chain.ChainID == "" {
		return fmt.Errorf("chain.id is required")
	}
	switch c.Chain.Flavor {
	case domain.FlavorStandard, domain.FlavorEnterprise:
	default:
		return fmt.Errorf("chain.flavor must be standard or enterprise, got %q", c.Chain.Flavor)
	}
	if c.Chain.Flavor == domain.FlavorEnterprise && c.Chain.Token == "" {
		return fmt.Errorf("chain.token is required for the enterprise flavor")
	}
	return nil
}
