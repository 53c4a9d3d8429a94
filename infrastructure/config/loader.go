package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader overlays YAML configuration files onto a Config. Keys absent from
// a file keep their current value.
type Loader struct {
	sources []string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile decodes the YAML file at path into cfg
func (l *Loader) LoadFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := l.Decode(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	l.sources = append(l.sources, path)
	return nil
}

// Decode overlays YAML bytes onto cfg. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func (l *Loader) Decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Sources returns the files loaded so far
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}
