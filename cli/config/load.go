package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is loaded when present before config expansion.
const DefaultEnvFile = ".env"

// DefaultNames are probed in order by Discover.
var DefaultNames = []string{"corpus.yaml", "corpus.yml", "corpus.toml"}

// Load reads a YAML or TOML config file (chosen by extension), expands
// environment variables, and decodes into a Config. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(data)

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(expanded))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, fmt.Errorf("invalid TOML in %s: %s", path, strict.String())
			}
			return nil, fmt.Errorf("invalid TOML in %s: %w", path, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	return &cfg, nil
}

// Discover returns the first default config file present in dir, or ""
// when there is none.
func Discover(dir string) string {
	for _, name := range DefaultNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process
// environment without overriding variables already set. A missing file
// is not an error when path is DefaultEnvFile.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) && path == DefaultEnvFile {
			return nil
		}
		return fmt.Errorf("cannot load env file %q: %w", path, err)
	}
	return nil
}
