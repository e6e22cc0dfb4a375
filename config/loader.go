package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig controls where Load looks for files.
type LoaderConfig struct {
	// ConfigFile is an explicit YAML config file path.
	ConfigFile string
	// EnvFile is an explicit .env file path.
	EnvFile string
	// FileSystem overrides file access; nil uses the real filesystem.
	FileSystem FileSystem
}

// Load reads configuration from an optional YAML file and the environment.
// Resolution order: defaults, file values, then BLOCKFLOW_* environment
// variables.
func Load(opts LoaderConfig) (*Config, error) {
	fs := opts.FileSystem
	if fs == nil {
		fs = &RealFileSystem{}
	}

	envFile := opts.EnvFile
	if envFile == "" && fs.Exists(".env") {
		envFile = ".env"
	}
	if envFile != "" {
		if err := fs.LoadEnv(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("BLOCKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := opts.ConfigFile
	if configFile == "" {
		for _, candidate := range []string{"./blockflow.yml", "./config/blockflow.yml"} {
			if fs.Exists(candidate) {
				configFile = candidate
				break
			}
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	// Bind keys so AutomaticEnv sees them even without file values.
	for _, key := range []string{
		"name", "environment", "data_dir", "meta_path", "default_storage",
		"logging.level", "logging.format", "logging.output",
	} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
