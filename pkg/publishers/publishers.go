package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Package publishers delivers engine events to downstream consumers.
// Each configured publisher is built by a type-keyed builder and the
// fanout delivers every event to all of them, isolating failures.

// Publisher delivers one event to a single destination.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, event Event) error
}

// Config is one publisher entry from the publishers file. Settings are
// interpreted by the builder for the given type.
type Config struct {
	ID       string            `yaml:"id" json:"id"`
	Type     string            `yaml:"type" json:"type"`
	Enabled  *bool             `yaml:"enabled" json:"enabled"`
	Settings map[string]string `yaml:"settings" json:"settings"`
}

type publishersFile struct {
	Publishers []Config `yaml:"publishers" json:"publishers"`
}

// LoadConfigs reads publisher declarations from a YAML or JSON file and
// drops disabled entries.
func LoadConfigs(path string) ([]Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file publishersFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse publishers yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse publishers json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported publishers file extension %q", filepath.Ext(path))
	}

	seen := make(map[string]struct{}, len(file.Publishers))
	out := make([]Config, 0, len(file.Publishers))
	for i, cfg := range file.Publishers {
		cfg.ID = strings.TrimSpace(cfg.ID)
		cfg.Type = strings.TrimSpace(strings.ToLower(cfg.Type))
		if cfg.ID == "" {
			return nil, fmt.Errorf("publisher #%d: missing id", i+1)
		}
		if cfg.Type == "" {
			return nil, fmt.Errorf("publisher %q: missing type", cfg.ID)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}

		if cfg.Enabled != nil && !*cfg.Enabled {
			continue
		}
		out = append(out, cfg)
	}

	return out, nil
}

// Setting fetches a named setting, with ok=false when absent or blank.
func (c Config) Setting(key string) (string, bool) {
	val, ok := c.Settings[key]
	val = strings.TrimSpace(val)
	return val, ok && val != ""
}

// RequireSetting fetches a named setting or fails with a descriptive error.
func (c Config) RequireSetting(key string) (string, error) {
	val, ok := c.Setting(key)
	if !ok {
		return "", fmt.Errorf("publisher %q (%s): missing required setting %q", c.ID, c.Type, key)
	}
	return val, nil
}
