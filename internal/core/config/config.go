package config

import (
	"time"

	"github.com/vietddude/marketwatch/internal/core/domain"
	redisclient "github.com/vietddude/marketwatch/internal/infra/redis"
	"github.com/vietddude/marketwatch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Chain    ChainConfig        `yaml:"chain"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
	Notify   NotifyConfig       `yaml:"notify"`
}

// ServerConfig holds the ops HTTP server settings (health, metrics, ws).
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ChainConfig holds settings for the watched marketplace chain.
type ChainConfig struct {
	ChainID domain.ChainID `yaml:"id"`
	Flavor  domain.Flavor  `yaml:"flavor"` // standard or enterprise
	HTTPURL string         `yaml:"http_url"`
	WSURL   string         `yaml:"ws_url"`

	// Contract addresses the gateway filters logs on.
	Hub                string `yaml:"hub"`
	AppRegistry        string `yaml:"app_registry"`
	DatasetRegistry    string `yaml:"dataset_registry"`
	WorkerpoolRegistry string `yaml:"workerpool_registry"`
	Token              string `yaml:"token"` // eRLC, enterprise flavor only

	StartBlock      uint64 `yaml:"start_block"`
	BlocksBatchSize uint64 `yaml:"blocks_batch_size"`

	Sync SyncConfig `yaml:"sync"`
}

// SyncConfig tunes the drift monitor job.
type SyncConfig struct {
	CheckInterval      time.Duration `yaml:"check_interval"`
	StartupDelay       time.Duration `yaml:"startup_delay"`
	OutOfSyncThreshold uint64        `yaml:"out_of_sync_threshold"`
}

// NotifyConfig tunes the websocket room broker.
type NotifyConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}
