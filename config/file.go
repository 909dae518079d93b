package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile loads a simpool configuration YAML document from disk. An empty
// path falls back to the SIMPOOL_CONFIG environment variable, then to
// config/simpool.yaml.
func LoadFile(path string) (Settings, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("SIMPOOL_CONFIG"))
	}
	if path == "" {
		path = "config/simpool.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read pool config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML configuration document.
func Parse(data []byte) (Settings, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Settings{}, fmt.Errorf("unmarshal pool config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// Validate performs semantic validation on the loaded configuration.
func (s Settings) Validate() error {
	seen := make(map[string]struct{}, len(s.Pools))
	for i, p := range s.Pools {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return fmt.Errorf("pool config: entry %d missing name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("pool config: duplicate pool %q", name)
		}
		seen[name] = struct{}{}
		if p.StartSize < 0 {
			return fmt.Errorf("pool config: pool %q has negative startSize", name)
		}
	}
	return nil
}
