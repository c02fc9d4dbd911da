// Package config loads the burrowdb configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	pagemanager "burrowdb/core/storage_engine/page_manager"
	"burrowdb/pkg/logger"
	"burrowdb/pkg/telemetry"

	"gopkg.in/yaml.v3"
)

// StorageConfig configures the storage-memory layer.
type StorageConfig struct {
	// DataFile is the path of the database file.
	DataFile string `yaml:"data_file"`
	// PageSize is the size of a page in bytes.
	PageSize int `yaml:"page_size"`
	// PoolSize is the number of frames in the buffer pool.
	PoolSize int `yaml:"pool_size"`
	// ReplacerK is the history depth of the LRU-K replacer.
	ReplacerK int `yaml:"replacer_k"`
	// WriteRateBytesPerSec throttles disk scheduler writes; 0 disables.
	WriteRateBytesPerSec int64 `yaml:"write_rate_bytes_per_sec"`
}

// Config is the root configuration.
type Config struct {
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Storage   StorageConfig    `yaml:"storage"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logger: logger.Config{
			Service:    logger.DefaultService,
			Level:      "info",
			Format:     "console",
			OutputFile: "stderr",
		},
		Telemetry: telemetry.Config{
			Enabled:        false,
			ServiceName:    "burrowdb",
			PrometheusPort: 9104,
		},
		Storage: StorageConfig{
			DataFile:  "burrowdb.db",
			PageSize:  pagemanager.DefaultPageSize,
			PoolSize:  64,
			ReplacerK: 2,
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Storage.PageSize <= 0 {
		return cfg, fmt.Errorf("storage.page_size must be positive, got %d", cfg.Storage.PageSize)
	}
	if cfg.Storage.PoolSize <= 0 {
		return cfg, fmt.Errorf("storage.pool_size must be positive, got %d", cfg.Storage.PoolSize)
	}
	if cfg.Storage.ReplacerK < 1 {
		return cfg, fmt.Errorf("storage.replacer_k must be at least 1, got %d", cfg.Storage.ReplacerK)
	}
	return cfg, nil
}
