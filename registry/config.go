package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the registry API configuration.
type ServerConfig struct {
	Listen      string `yaml:"listen"`
	DBPath      string `yaml:"db_path"`
	StorageDir  string `yaml:"storage_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// DefaultServerConfig returns sane defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Listen:      ":8090",
		DBPath:      "data/registry.db",
		StorageDir:  "data/knowledge",
		MaxUploadMB: 50,
	}
}

// LoadServerConfig reads and parses a YAML config file, merged over the
// defaults.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *ServerConfig) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir is required")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0")
	}
	return nil
}
