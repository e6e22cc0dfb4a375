// Package config loads runtime configuration for blockflow from YAML files
// and environment variables. Files are read with viper, .env files with
// godotenv, and environment variables override file values under the
// BLOCKFLOW_ prefix.
package config
