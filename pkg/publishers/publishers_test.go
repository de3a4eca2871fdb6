package publishers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigsDropsDisabled(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: stdout
    type: log
  - id: paused
    type: http
    enabled: false
    settings:
      endpoint: https://example.com/hook
`)

	cfgs, err := LoadConfigs(path)
	if err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if len(cfgs) != 1 || cfgs[0].ID != "stdout" {
		t.Fatalf("configs = %+v, want only the enabled entry", cfgs)
	}
}

func TestLoadConfigsValidation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing id", "publishers:\n  - type: log\n", "missing id"},
		{"missing type", "publishers:\n  - id: a\n", "missing type"},
		{"duplicate id", "publishers:\n  - id: a\n    type: log\n  - id: a\n    type: log\n", "duplicate publisher id"},
	}
	for _, tc := range cases {
		path := writeFile(t, "publishers.yaml", tc.yaml)
		if _, err := LoadConfigs(path); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: err = %v, want containing %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestConfigSettings(t *testing.T) {
	cfg := Config{ID: "a", Type: "http", Settings: map[string]string{"endpoint": "https://x", "blank": "  "}}

	if v, ok := cfg.Setting("endpoint"); !ok || v != "https://x" {
		t.Fatalf("Setting = (%q, %t)", v, ok)
	}
	if _, ok := cfg.Setting("blank"); ok {
		t.Fatal("blank setting reported present")
	}
	if _, err := cfg.RequireSetting("missing"); err == nil {
		t.Fatal("RequireSetting accepted a missing key")
	}
}

func TestRegistryBuild(t *testing.T) {
	reg := DefaultRegistry()

	pub, err := reg.Build(context.Background(), Config{ID: "stdout", Type: "log"}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("Build log publisher: %v", err)
	}
	if pub.ID() != "stdout" || pub.Type() != "log" {
		t.Fatalf("publisher identity = (%s, %s)", pub.ID(), pub.Type())
	}

	if _, err := reg.Build(context.Background(), Config{ID: "x", Type: "carrier-pigeon"}, nil); err == nil {
		t.Fatal("unknown type accepted")
	}

	// http without its required endpoint fails at build time.
	if _, err := reg.Build(context.Background(), Config{ID: "h", Type: "http"}, nil); err == nil {
		t.Fatal("http publisher built without endpoint")
	}
}

// recordingPublisher counts deliveries and optionally fails.
type recordingPublisher struct {
	id     string
	events []Event
	err    error
}

func (p *recordingPublisher) ID() string   { return p.id }
func (p *recordingPublisher) Type() string { return "test" }
func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func TestFanoutIsolatesFailures(t *testing.T) {
	healthy := &recordingPublisher{id: "ok"}
	broken := &recordingPublisher{id: "broken", err: errors.New("endpoint down")}
	second := &recordingPublisher{id: "ok2"}

	fanout := NewFanout([]Publisher{healthy, broken, second}, logger.NopLogger{})

	event := Event{
		Type:      EventArticleAccepted,
		SourceID:  "src-1",
		Article:   &ArticlePayload{ID: "a1", Title: "Заголовок"},
		EmittedAt: time.Now(),
	}
	if delivered := fanout.Publish(context.Background(), event); delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}
	if len(healthy.events) != 1 || len(second.events) != 1 {
		t.Fatal("a failing publisher blocked the others")
	}
}

func TestFanoutStopsOnCancelledContext(t *testing.T) {
	pub := &recordingPublisher{id: "ok"}
	fanout := NewFanout([]Publisher{pub}, logger.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if delivered := fanout.Publish(ctx, Event{Type: EventRunReport}); delivered != 0 {
		t.Fatalf("delivered = %d on cancelled context", delivered)
	}
	if len(pub.events) != 0 {
		t.Fatal("event delivered after cancellation")
	}
}
