package sources

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadSourcesYAML(t *testing.T) {
	path := writeFile(t, "sources.yaml", `
sources:
  - id: vesti-army
    name: Vesti Army
    url: https://www.vesti.ru/theme/armiya
    kind: news
    base_interval_seconds: 21600
    item_cap: 5
  - id: topwar-feed
    url: https://topwar.ru/rss.xml
    kind: rss
`)

	srcs, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("loaded %d sources, want 2", len(srcs))
	}

	first := srcs[0]
	if first.ID != "vesti-army" || first.Kind != domain.KindNews || first.BaseInterval != 6*time.Hour {
		t.Fatalf("first source = %+v", first)
	}
	if !first.Enabled || first.Health != domain.HealthActive {
		t.Fatalf("defaults not applied: %+v", first)
	}

	second := srcs[1]
	if second.Kind != domain.KindFeed {
		t.Fatalf("rss kind mapped to %s", second.Kind)
	}
	if second.Name != "topwar-feed" {
		t.Fatalf("missing name not defaulted to id: %q", second.Name)
	}
	if second.BaseInterval != defaultBaseInterval || second.ItemCap != defaultItemCap {
		t.Fatalf("interval/cap defaults not applied: %+v", second)
	}
}

func TestLoadSourcesJSON(t *testing.T) {
	path := writeFile(t, "sources.json", `{
  "sources": [
    {"id": "ria", "url": "https://ria.ru/defense_safety/", "kind": "news"}
  ]
}`)

	srcs, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(srcs) != 1 || srcs[0].ID != "ria" {
		t.Fatalf("sources = %+v", srcs)
	}
}

func TestLoadSourcesValidation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"missing id",
			"sources:\n  - url: https://a.example.com\n",
			"missing id",
		},
		{
			"relative url",
			"sources:\n  - id: a\n    url: /news\n",
			"absolute",
		},
		{
			"unknown kind",
			"sources:\n  - id: a\n    url: https://a.example.com\n    kind: carrier-pigeon\n",
			"unknown source kind",
		},
		{
			"duplicate id",
			"sources:\n  - id: a\n    url: https://a.example.com\n  - id: a\n    url: https://b.example.com\n",
			"duplicate source id",
		},
		{
			"duplicate url",
			"sources:\n  - id: a\n    url: https://a.example.com\n  - id: b\n    url: https://a.example.com\n",
			"duplicate source url",
		},
		{
			"empty list",
			"sources: []\n",
			"no sources",
		},
	}

	for _, tc := range cases {
		path := writeFile(t, "sources.yaml", tc.yaml)
		_, err := LoadSources(path)
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: err = %v, want containing %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestLoadSourcesDisabledEntryKept(t *testing.T) {
	path := writeFile(t, "sources.yaml", `
sources:
  - id: paused
    url: https://paused.example.com
    enabled: false
`)

	srcs, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(srcs) != 1 || srcs[0].Enabled {
		t.Fatalf("disabled source handling wrong: %+v", srcs)
	}
}
