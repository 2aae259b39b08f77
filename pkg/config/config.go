// Package config loads the optional safecheck configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	dirName    = "safecheck"
	configFile = "config.toml"
	envConfig  = "SAFECHECK_CONFIG"
)

type Config struct {
	Options Options           `toml:"options"` // default CLI behaviour
	Schemas map[string]string `toml:"schemas"` // family code -> manifest schema path
}

type Options struct {
	Quiet     bool   `toml:"quiet"`      // suppress info and warning output by default
	LogFormat string `toml:"log_format"` // "console" or "json"
}

// Load reads the configuration from explicit (if non-empty), the
// SAFECHECK_CONFIG environment variable, or the per-user default location.
// A missing file is only an error when it was explicitly requested.
func Load(explicit string) (Config, error) {
	path := strings.TrimSpace(explicit)
	required := path != ""

	if path == "" {
		if env := strings.TrimSpace(os.Getenv(envConfig)); env != "" {
			path = env
			required = true
		}
	}
	if path == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, nil
		}
		path = filepath.Join(cfgDir, dirName, configFile)
	}

	cfg, err := decode(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}

	// Schema overrides are keyed by upper-case family codes; normalize so
	// lookups don't depend on how the user wrote them.
	if len(cfg.Schemas) > 0 {
		normalized := make(map[string]string, len(cfg.Schemas))
		for family, schemaPath := range cfg.Schemas {
			normalized[strings.ToUpper(strings.TrimSpace(family))] = schemaPath
		}
		cfg.Schemas = normalized
	}

	return cfg, nil
}
