package config

import (
	"fmt"
	"path/filepath"

	"github.com/blockflow/blockflow/logger"
	"github.com/blockflow/blockflow/util"
)

// Config contains the runtime configuration.
type Config struct {
	// Name identifies the embedding application in logs and telemetry.
	Name string `yaml:"name" mapstructure:"name"`
	// Environment is the deployment environment (development, staging, production).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// DataDir is the root directory for file-storage replicas.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// MetaPath is the bolt metadata database file. Empty selects the
	// in-memory metadata store.
	MetaPath string `yaml:"meta_path" mapstructure:"meta_path"`
	// DefaultStorage is the storage kind new blocks materialize into when a
	// node declares no preference (memory, table, file).
	DefaultStorage string `yaml:"default_storage" mapstructure:"default_storage"`
	// Logging configures the runtime logger.
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	c.Name = util.Coalesce(c.Name, "blockflow")
	c.Environment = util.Coalesce(c.Environment, "development")
	c.DataDir = util.Coalesce(c.DataDir, filepath.Join(".", ".blockflow"))
	c.DefaultStorage = util.Coalesce(c.DefaultStorage, "memory")
	c.Logging.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	if !contains(validEnvs, c.Environment) {
		return fmt.Errorf("environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	validStorage := []string{"memory", "table", "file"}
	if !contains(validStorage, c.DefaultStorage) {
		return fmt.Errorf("default_storage must be one of %v (got: %s)", validStorage, c.DefaultStorage)
	}
	return c.Logging.Validate()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
