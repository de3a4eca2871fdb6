package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
	"github.com/vestnik-hq/vestnik-content-engine/internal/textgen"
)

// scriptedGenerator returns canned responses keyed by a prompt fragment.
type scriptedGenerator struct {
	responses map[string]string
	err       error
	calls     int
	failFirst int
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	if g.failFirst > 0 {
		g.failFirst--
		return "", fmt.Errorf("throttled: %w", textgen.ErrRateLimited)
	}
	if g.err != nil {
		return "", g.err
	}
	for fragment, response := range g.responses {
		if strings.Contains(prompt, fragment) {
			return response, nil
		}
	}
	return "generated text", nil
}

const origTitle = "Армия показала новый танк"
const origBody = "Опытный военный показал новый танк на полигоне. Солдат рассказал о технике. " +
	"Машина прошла все испытания успешно."

func TestRewriteUsesGeneratedFields(t *testing.T) {
	gen := &scriptedGenerator{responses: map[string]string{
		"headline": "Новая бронетехника вышла на полигон",
		"keywords": "танк, полигон, испытания",
		"tags":     "Техника, Армия",
	}}
	rw := NewRewriter(gen, Options{Sleep: func(time.Duration) {}}, logger.NopLogger{})

	res := rw.Rewrite(context.Background(), origTitle, origBody)
	if res.Fallback {
		t.Fatalf("unexpected fallback: %+v", res)
	}
	if res.Title != "Новая бронетехника вышла на полигон" {
		t.Fatalf("title = %q", res.Title)
	}
	if len(res.Keywords) != 3 || res.Keywords[0] != "танк" {
		t.Fatalf("keywords = %v", res.Keywords)
	}
	if len(res.Tags) != 2 {
		t.Fatalf("tags = %v", res.Tags)
	}
}

func TestRewriteFallsBackWhenServiceUnavailable(t *testing.T) {
	rw := NewRewriter(nil, Options{}, logger.NopLogger{})

	res := rw.Rewrite(context.Background(), origTitle, origBody)
	if !res.Fallback {
		t.Fatal("expected fallback result without a generator")
	}
	if res.Title == "" || res.Body == "" {
		t.Fatalf("fallback produced empty fields: %+v", res)
	}
	if res.Summary == "" || len(res.Keywords) == 0 || len(res.Tags) == 0 {
		t.Fatalf("fallback left auxiliary fields empty: %+v", res)
	}
	// The synonym table must actually change the text.
	if !strings.Contains(res.Body, "армейский") || !strings.Contains(res.Body, "продемонстрировал") {
		t.Fatalf("fallback body not rewritten: %q", res.Body)
	}
}

func TestRewriteFallsBackOnTerminalError(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("model overloaded")}
	rw := NewRewriter(gen, Options{Sleep: func(time.Duration) {}}, logger.NopLogger{})

	res := rw.Rewrite(context.Background(), origTitle, origBody)
	if !res.Fallback {
		t.Fatal("expected fallback on terminal errors")
	}
	// Terminal errors must not be retried: one call per field.
	if gen.calls != 5 {
		t.Fatalf("generator calls = %d, want 5", gen.calls)
	}
}

func TestRewriteRetriesRateLimitWithBackoff(t *testing.T) {
	var delays []time.Duration
	gen := &scriptedGenerator{
		failFirst: 2,
		responses: map[string]string{"headline": "Заголовок после повторов"},
	}
	rw := NewRewriter(gen, Options{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Sleep:      func(d time.Duration) { delays = append(delays, d) },
	}, logger.NopLogger{})

	res := rw.Rewrite(context.Background(), origTitle, origBody)
	if res.Title != "Заголовок после повторов" {
		t.Fatalf("title = %q", res.Title)
	}
	if len(delays) < 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Fatalf("backoff delays = %v, want [1s 2s ...]", delays)
	}
}

func TestRewriteGivesUpAfterMaxRetries(t *testing.T) {
	gen := &scriptedGenerator{failFirst: 1000}
	rw := NewRewriter(gen, Options{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Sleep:      func(time.Duration) {},
	}, logger.NopLogger{})

	res := rw.Rewrite(context.Background(), origTitle, origBody)
	if !res.Fallback {
		t.Fatal("expected fallback after exhausting retries")
	}
	// Five fields, three attempts each.
	if gen.calls != 15 {
		t.Fatalf("generator calls = %d, want 15", gen.calls)
	}
}

func TestLeadingSentences(t *testing.T) {
	got := leadingSentences("Первое предложение. Второе предложение. Третье.", 2)
	want := "Первое предложение. Второе предложение."
	if got != want {
		t.Fatalf("leadingSentences = %q, want %q", got, want)
	}
}

func TestSplitCommaListTrimsAndCaps(t *testing.T) {
	got := splitCommaList(`танк, "полигон" ,  , учения`, 2)
	if len(got) != 2 || got[0] != "танк" || got[1] != "полигон" {
		t.Fatalf("splitCommaList = %v", got)
	}
}
