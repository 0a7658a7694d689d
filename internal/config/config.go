package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the remote service connection.
const (
	DefaultAPIURL  = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	APIURL      string        `yaml:"api_url"`
	Timeout     time.Duration `yaml:"-"`
	Environment string        `yaml:"environment"`
	// Debug flags
	Debug bool `yaml:"debug"`
}

// fileConfig mirrors Config for the optional YAML config file, with the
// timeout expressed in seconds.
type fileConfig struct {
	APIURL         string `yaml:"api_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Environment    string `yaml:"environment"`
	Debug          *bool  `yaml:"debug"`
}

// Load builds the configuration from the optional config file overlaid with
// environment variables. Env vars win over the file; defaults fill the rest.
func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	cfg := &Config{
		APIURL:      DefaultAPIURL,
		Timeout:     DefaultTimeout,
		Environment: env,
		// Debug defaults to true outside prod
		Debug: getDefaultDebug(env) == "true",
	}

	if path := configFilePath(); path != "" {
		// A broken config file is reported but never fatal - env and
		// defaults still produce a usable configuration.
		if err := cfg.mergeFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: ignoring config file %s: %v\n", path, err)
		}
	}

	if v := os.Getenv("INKWELL_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("INKWELL_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("DEBUG"); v != "" {
		cfg.Debug = v == "true"
	}

	return cfg
}

// mergeFile overlays values from a YAML config file onto cfg.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.APIURL != "" {
		c.APIURL = fc.APIURL
	}
	if fc.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}
	if fc.Environment != "" {
		c.Environment = fc.Environment
	}
	if fc.Debug != nil {
		c.Debug = *fc.Debug
	}

	return nil
}

// configFilePath returns the config file location: INKWELL_CONFIG if set,
// otherwise ~/.config/inkwell/config.yaml.
func configFilePath() string {
	if path := os.Getenv("INKWELL_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "inkwell", "config.yaml")
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
