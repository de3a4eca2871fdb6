package rewrite

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
	"github.com/vestnik-hq/vestnik-content-engine/internal/textgen"
)

// Result is the rewritten form of one item. Title and Body are always
// non-empty: when the generative service is unavailable the deterministic
// local fallback fills them in, so the pipeline never stalls here.
type Result struct {
	Title    string
	Body     string
	Summary  string
	Keywords []string
	Tags     []string
	Fallback bool
}

// Options tunes the retry behavior for rate-limited calls.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      func(time.Duration)
}

// Rewriter produces unique variants of scraped content via the generative
// text service, one independent prompt per field.
type Rewriter struct {
	gen        textgen.Generator
	maxRetries int
	baseDelay  time.Duration
	sleep      func(time.Duration)
	log        logger.Logger
}

// NewRewriter wires a rewriter over the given generator.
func NewRewriter(gen textgen.Generator, opts Options, log logger.Logger) *Rewriter {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Rewriter{
		gen:        gen,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		sleep:      opts.Sleep,
		log:        logger.Ensure(log),
	}
}

// Rewrite generates the rewritten title, body, summary, keywords, and tags.
// Fields fail independently; any field the service cannot produce is filled
// by the local fallback.
func (r *Rewriter) Rewrite(ctx context.Context, title, body string) Result {
	preview := contentPreview(body)

	newTitle := r.generateField(ctx, "title", titlePrompt(title, preview))
	newBody := r.generateField(ctx, "body", bodyPrompt(body))
	summary := r.generateField(ctx, "summary", summaryPrompt(body))
	keywordsRaw := r.generateField(ctx, "keywords", keywordsPrompt(body))
	tagsRaw := r.generateField(ctx, "tags", tagsPrompt(body))

	res := Result{
		Title:    newTitle,
		Body:     newBody,
		Summary:  summary,
		Keywords: splitCommaList(keywordsRaw, 15),
		Tags:     splitCommaList(tagsRaw, 8),
	}

	if res.Title == "" || res.Body == "" {
		r.log.WarnObj("generative rewrite unavailable, using local fallback", "rewrite_fallback", map[string]any{
			"title_empty": res.Title == "",
			"body_empty":  res.Body == "",
		})
		fb := fallbackRewrite(title, body)
		if res.Title == "" {
			res.Title = fb.Title
		}
		if res.Body == "" {
			res.Body = fb.Body
		}
		res.Fallback = true
	}
	if res.Summary == "" {
		res.Summary = leadingSentences(body, 2)
	}
	if len(res.Keywords) == 0 {
		res.Keywords = frequencyKeywords(body, 10)
	}
	if len(res.Tags) == 0 {
		res.Tags = defaultTags()
	}

	return res
}

// generateField calls the service for one prompt, retrying rate-limit
// failures with exponential backoff and abandoning the field on anything else.
func (r *Rewriter) generateField(ctx context.Context, field, prompt string) string {
	if r.gen == nil {
		return ""
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ""
		}

		text, err := r.gen.Generate(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(text)
		}

		if !errors.Is(err, textgen.ErrRateLimited) {
			r.log.WarnObj("text generation failed", "rewrite_error", map[string]any{
				"field": field,
				"error": err.Error(),
			})
			return ""
		}
		if attempt < r.maxRetries-1 {
			r.sleep(r.baseDelay * (1 << attempt))
		}
	}
	return ""
}

// Prompt builders ---------------------------------------------------------

func titlePrompt(title, preview string) string {
	return fmt.Sprintf(`You are a professional defense journalist and SEO specialist.
Rewrite the headline below so it is unique, engaging, accurate to the article, and 8-12 words long.

Original headline: %s

Article context: %s

Reply with the new headline only, without quotes or commentary.`, title, preview)
}

func bodyPrompt(body string) string {
	return fmt.Sprintf(`You are an experienced military analyst and journalist.
Rewrite the article below, keeping every fact, figure, date, name, and place intact while changing
the structure and wording. Use professional military terminology where appropriate and keep the
text analytical.

Original article:
%s

Reply with the rewritten article only.`, body)
}

func summaryPrompt(body string) string {
	return fmt.Sprintf(`Write a 2-3 sentence summary of the following defense article. It must be
factual, informative, and understandable to a general audience.

%s`, body)
}

func keywordsPrompt(body string) string {
	return fmt.Sprintf(`Extract 10-15 keywords and key phrases from the following defense article.
Include names, places, and military equipment. Reply with a comma-separated list only.

%s`, body)
}

func tagsPrompt(body string) string {
	return fmt.Sprintf(`Produce 5-8 short tags (1-3 words each) categorizing the following defense
article, suitable for site navigation. Reply with a comma-separated list only.

%s`, body)
}

// Deterministic fallback ---------------------------------------------------

// synonymTable drives the local rewrite when the service is unavailable.
// Keys and replacements are reporting verbs and domain terms common in the
// harvested corpus.
var synonymTable = [][2]string{
	{"сообщает", "информирует"},
	{"заявил", "отметил"},
	{"рассказал", "поведал"},
	{"показал", "продемонстрировал"},
	{"военный", "армейский"},
	{"солдат", "военнослужащий"},
	{"reported", "stated"},
	{"said", "noted"},
	{"showed", "demonstrated"},
	{"soldiers", "service members"},
}

func fallbackRewrite(title, body string) Result {
	newTitle := strings.NewReplacer("—", "-", "«", `"`, "»", `"`).Replace(title)

	newBody := body
	for _, pair := range synonymTable {
		newBody = strings.ReplaceAll(newBody, pair[0], pair[1])
	}

	return Result{
		Title:    newTitle,
		Body:     newBody,
		Summary:  leadingSentences(body, 2),
		Keywords: frequencyKeywords(body, 10),
		Tags:     defaultTags(),
		Fallback: true,
	}
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

func leadingSentences(text string, n int) string {
	parts := sentenceSplit.Split(text, -1)
	kept := make([]string, 0, n)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kept = append(kept, part)
		if len(kept) == n {
			break
		}
	}
	if len(kept) == 0 {
		return strings.TrimSpace(text)
	}
	return strings.Join(kept, ". ") + "."
}

var wordPattern = regexp.MustCompile(`\p{L}{4,}`)

// frequencyKeywords picks the most frequent long words as naive keywords.
func frequencyKeywords(text string, limit int) []string {
	counts := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

func defaultTags() []string {
	return []string{"Military News", "Defense", "Armed Forces"}
}

func contentPreview(body string) string {
	const maxPreview = 200
	runes := []rune(body)
	if len(runes) <= maxPreview {
		return body
	}
	return string(runes[:maxPreview]) + "..."
}

func splitCommaList(raw string, limit int) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"`))
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == limit {
			break
		}
	}
	return out
}
