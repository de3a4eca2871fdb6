package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/dedup"
	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
	"github.com/vestnik-hq/vestnik-content-engine/internal/quality"
	"github.com/vestnik-hq/vestnik-content-engine/internal/rewrite"
	"github.com/vestnik-hq/vestnik-content-engine/internal/store"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/httpclient"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/publishers"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/sources"
)

// Package pipeline runs scraped items through duplicate detection,
// rewriting, quality scoring, and persistence.

// Stats aggregates the outcome of one source run.
type Stats struct {
	Found         int
	Processed     int
	Accepted      int
	Duplicates    int
	LowQuality    int
	Errors        int
	AvgQuality    float64
	AvgUniqueness float64
	AvgItemTime   time.Duration
}

// Options carries the pipeline tunables.
type Options struct {
	ListRetry  httpclient.RetryPolicy
	Politeness time.Duration
}

// Processor owns the per-item state machine and the per-source run loop.
// It is safe for concurrent use; all mutable state lives on the stack of
// each call.
type Processor struct {
	detector    *dedup.Detector
	rewriter    *rewrite.Rewriter
	scorer      *quality.Scorer
	categorizer *quality.Categorizer
	st          store.Store
	registry    *sources.Registry
	fanout      *publishers.Fanout
	listRetry   httpclient.RetryPolicy
	politeness  time.Duration
	log         logger.Logger
	now         func() time.Time
}

// NewProcessor wires a processor from its collaborators.
func NewProcessor(
	detector *dedup.Detector,
	rewriter *rewrite.Rewriter,
	scorer *quality.Scorer,
	categorizer *quality.Categorizer,
	st store.Store,
	registry *sources.Registry,
	fanout *publishers.Fanout,
	opts Options,
	log logger.Logger,
) *Processor {
	if opts.ListRetry.MaxAttempts <= 0 {
		opts.ListRetry = httpclient.DefaultRetryPolicy()
	}
	return &Processor{
		detector:    detector,
		rewriter:    rewriter,
		scorer:      scorer,
		categorizer: categorizer,
		st:          st,
		registry:    registry,
		fanout:      fanout,
		listRetry:   opts.ListRetry,
		politeness:  opts.Politeness,
		log:         logger.Ensure(log),
		now:         time.Now,
	}
}

// WithClock overrides the clock; used by tests.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// RunSource executes one full harvesting run: list candidate links,
// then parse and process each item with a politeness delay in between.
// The returned error marks the run itself as failed (listing failure);
// per-item failures are reported through Stats.Errors instead.
func (p *Processor) RunSource(ctx context.Context, src domain.Source) (Stats, error) {
	adapter := p.registry.Resolve(src)

	var links []string
	err := p.listRetry.Do(ctx, func() error {
		var listErr error
		links, listErr = adapter.ListCandidateLinks(ctx, src)
		return listErr
	})
	if err != nil {
		return Stats{}, fmt.Errorf("list %s: %w", src.OriginURL, err)
	}

	if src.ItemCap > 0 && len(links) > src.ItemCap {
		links = links[:src.ItemCap]
	}

	stats := Stats{Found: len(links)}
	var qualitySum, uniquenessSum float64
	var durationSum time.Duration

	for i, link := range links {
		if i > 0 && !p.politeWait(ctx) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		item, err := adapter.ParseItem(ctx, src, link)
		if err != nil {
			stats.Errors++
			p.log.WarnObj("item extraction failed", "extract_error", map[string]any{
				"source": src.ID,
				"link":   link,
				"error":  err.Error(),
			})
			continue
		}

		outcome := p.ProcessItem(ctx, src, item)
		stats.Processed++
		durationSum += outcome.Duration

		switch {
		case outcome.Accepted:
			stats.Accepted++
			qualitySum += outcome.Quality
			uniquenessSum += outcome.Uniqueness
			if outcome.StorageFailed {
				stats.Errors++
			}
		case outcome.Reason == domain.RejectDuplicate:
			stats.Duplicates++
		case outcome.Reason == domain.RejectLowQuality, outcome.Reason == domain.RejectLowUniqueness:
			stats.LowQuality++
			qualitySum += outcome.Quality
			uniquenessSum += outcome.Uniqueness
		default:
			stats.Errors++
		}
	}

	if scored := stats.Accepted + stats.LowQuality; scored > 0 {
		stats.AvgQuality = qualitySum / float64(scored)
		stats.AvgUniqueness = uniquenessSum / float64(scored)
	}
	if stats.Processed > 0 {
		stats.AvgItemTime = durationSum / time.Duration(stats.Processed)
	}

	return stats, nil
}

// ProcessItem runs the per-item state machine. Duplicate detection runs
// first so known content never reaches the rewrite service; a storage
// failure on an accepted item is surfaced as StorageFailed, never as a
// quality rejection.
func (p *Processor) ProcessItem(ctx context.Context, src domain.Source, item *domain.RawItem) domain.Outcome {
	started := p.now()
	finish := func(out domain.Outcome) domain.Outcome {
		out.Duration = p.now().Sub(started)
		return out
	}

	verdict, err := p.detector.Check(item.Title, item.Body, item.Link)
	if err != nil {
		p.log.ErrorObj("duplicate check failed", "dedup_error", map[string]any{
			"source": src.ID,
			"link":   item.Link,
			"error":  err.Error(),
		})
		return finish(domain.Outcome{Reason: domain.RejectProcessing})
	}
	if verdict.IsDuplicate {
		p.log.DebugObj("duplicate skipped", "duplicate", map[string]any{
			"source":     src.ID,
			"link":       item.Link,
			"match_kind": verdict.MatchKind,
			"matched_id": verdict.MatchedID,
			"similarity": verdict.Similarity,
		})
		return finish(domain.Outcome{Reason: domain.RejectDuplicate})
	}

	rewritten := p.rewriter.Rewrite(ctx, item.Title, item.Body)

	uniqueness := (1 - dedup.CosineSimilarity(rewritten.Body, item.Body)) * 100
	report := p.scorer.Score(rewritten.Title, rewritten.Body, uniqueness)

	out := domain.Outcome{
		Title:      rewritten.Title,
		Body:       rewritten.Body,
		Quality:    report.Overall,
		Uniqueness: report.Uniqueness,
		Tags:       rewritten.Tags,
	}

	if ok, reason := p.scorer.Gate(report); !ok {
		out.Reason = reason
		return finish(out)
	}

	out.Categories = p.categorizer.Predict(rewritten.Title, rewritten.Body)

	article := store.Article{
		SourceID:     src.ID,
		Title:        rewritten.Title,
		Body:         rewritten.Body,
		Summary:      rewritten.Summary,
		OriginalLink: item.Link,
		ImageURL:     item.ImageURL,
		Quality:      report.Overall,
		Uniqueness:   report.Uniqueness,
		Tags:         rewritten.Tags,
		Categories:   out.Categories,
		ContentHash:  p.detector.Hash(rewritten.Body),
		PublishedAt:  item.PublishedAt,
		SavedAt:      p.now(),
	}

	id, err := p.st.Save(article)
	switch {
	case errors.Is(err, store.ErrDuplicateLink):
		// Lost the race to another run; same answer as the detector.
		out.Reason = domain.RejectDuplicate
		return finish(out)
	case err != nil:
		p.log.ErrorObj("article save failed", "storage_error", map[string]any{
			"source": src.ID,
			"link":   item.Link,
			"error":  err.Error(),
		})
		out.Accepted = true
		out.Reason = domain.RejectNone
		out.StorageFailed = true
		return finish(out)
	}

	out.Accepted = true
	out.Reason = domain.RejectNone
	out.SavedID = id

	p.publishAccepted(ctx, src, item, article, id)
	return finish(out)
}

func (p *Processor) publishAccepted(ctx context.Context, src domain.Source, item *domain.RawItem, article store.Article, id string) {
	if p.fanout == nil || p.fanout.Len() == 0 {
		return
	}
	p.fanout.Publish(ctx, publishers.Event{
		Type:       publishers.EventArticleAccepted,
		SourceID:   src.ID,
		SourceName: src.Name,
		Article: &publishers.ArticlePayload{
			ID:           id,
			Title:        article.Title,
			Summary:      article.Summary,
			OriginalLink: article.OriginalLink,
			ImageURL:     article.ImageURL,
			Quality:      article.Quality,
			Uniqueness:   article.Uniqueness,
			Categories:   article.Categories,
			Tags:         article.Tags,
			PublishedAt:  item.PublishedAt,
		},
		EmittedAt: p.now(),
	})
}

// politeWait sleeps the politeness delay, aborting early on shutdown.
func (p *Processor) politeWait(ctx context.Context) bool {
	if p.politeness <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(p.politeness)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
