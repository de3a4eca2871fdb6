package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
)

// Package sources loads source descriptors from configuration and maps
// each source to the adapter that knows how to extract its content.

type sourcesFile struct {
	Sources []sourceEntry `yaml:"sources" json:"sources"`
}

type sourceEntry struct {
	ID                  string `yaml:"id" json:"id"`
	Name                string `yaml:"name" json:"name"`
	URL                 string `yaml:"url" json:"url"`
	Kind                string `yaml:"kind" json:"kind"`
	BaseIntervalSeconds int64  `yaml:"base_interval_seconds" json:"base_interval_seconds"`
	ItemCap             int    `yaml:"item_cap" json:"item_cap"`
	Enabled             *bool  `yaml:"enabled" json:"enabled"`
}

const (
	defaultBaseInterval = 6 * time.Hour
	defaultItemCap      = 5
)

// LoadSources reads the source list from a YAML or JSON file, validates
// every entry, and rejects duplicate ids and duplicate origin URLs.
func LoadSources(path string) ([]domain.Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var file sourcesFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse sources yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse sources json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported sources file extension %q", filepath.Ext(path))
	}

	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s declares no sources", path)
	}

	seenIDs := make(map[string]struct{}, len(file.Sources))
	seenURLs := make(map[string]struct{}, len(file.Sources))
	out := make([]domain.Source, 0, len(file.Sources))

	for i, entry := range file.Sources {
		src, err := sanitizeEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("source #%d: %w", i+1, err)
		}
		if _, dup := seenIDs[src.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", src.ID)
		}
		if _, dup := seenURLs[src.OriginURL]; dup {
			return nil, fmt.Errorf("duplicate source url %q", src.OriginURL)
		}
		seenIDs[src.ID] = struct{}{}
		seenURLs[src.OriginURL] = struct{}{}
		out = append(out, src)
	}

	return out, nil
}

func sanitizeEntry(entry sourceEntry) (domain.Source, error) {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		return domain.Source{}, fmt.Errorf("missing id")
	}

	url := strings.TrimSpace(entry.URL)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return domain.Source{}, fmt.Errorf("source %q: url must be absolute http(s), got %q", id, entry.URL)
	}

	kind, err := parseKind(entry.Kind)
	if err != nil {
		return domain.Source{}, fmt.Errorf("source %q: %w", id, err)
	}

	name := strings.TrimSpace(entry.Name)
	if name == "" {
		name = id
	}

	interval := defaultBaseInterval
	if entry.BaseIntervalSeconds > 0 {
		interval = time.Duration(entry.BaseIntervalSeconds) * time.Second
	}

	itemCap := entry.ItemCap
	if itemCap <= 0 {
		itemCap = defaultItemCap
	}

	enabled := true
	if entry.Enabled != nil {
		enabled = *entry.Enabled
	}

	return domain.Source{
		ID:           id,
		Name:         name,
		OriginURL:    url,
		Kind:         kind,
		BaseInterval: interval,
		ItemCap:      itemCap,
		Enabled:      enabled,
		Health:       domain.HealthActive,
	}, nil
}

func parseKind(raw string) (domain.SourceKind, error) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "", "news", "site", "html":
		return domain.KindNews, nil
	case "feed", "rss", "atom":
		return domain.KindFeed, nil
	case "video", "youtube":
		return domain.KindVideo, nil
	case "social", "telegram":
		return domain.KindSocial, nil
	case "other":
		return domain.KindOther, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", raw)
	}
}
