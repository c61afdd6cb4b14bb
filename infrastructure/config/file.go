package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ApplyFile overlays the keys present in a YAML file onto c
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a YAML file over the defaults without consulting the environment
func ReadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.ApplyFile(path); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	return cfg, nil
}
