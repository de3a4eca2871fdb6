package app

import (
	"context"
	"fmt"

	"github.com/vestnik-hq/vestnik-content-engine/internal/config"
	"github.com/vestnik-hq/vestnik-content-engine/internal/dedup"
	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
	"github.com/vestnik-hq/vestnik-content-engine/internal/pipeline"
	"github.com/vestnik-hq/vestnik-content-engine/internal/quality"
	"github.com/vestnik-hq/vestnik-content-engine/internal/rewrite"
	"github.com/vestnik-hq/vestnik-content-engine/internal/scheduler"
	"github.com/vestnik-hq/vestnik-content-engine/internal/store"
	"github.com/vestnik-hq/vestnik-content-engine/internal/textgen"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/httpclient"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/publishers"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/sources"
)

// Engine is the content engine runtime. It owns the scheduler loop and
// the storage backend, and wires the fetch, dedup, rewrite, scoring, and
// publishing collaborators together from configuration.
type Engine struct {
	cfg   *config.Config
	sched *scheduler.Scheduler
	st    store.Store
	log   logger.Logger
}

// NewEngine builds the engine runtime from config files.
func NewEngine(ctx context.Context, cfg *config.Config, log logger.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	srcs, err := sources.LoadSources(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	sourceIDs := make([]string, 0, len(srcs))
	for _, src := range srcs {
		sourceIDs = append(sourceIDs, src.ID)
	}
	log.InfoObj("sources loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	pubCfgs, err := publishers.LoadConfigs(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	pubs, err := publishers.DefaultRegistry().BuildAll(ctx, pubCfgs, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubs, log)
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{"count": fanout.Len()})

	st, err := store.NewStore("bbolt", cfg.StoragePath, store.Options{
		HashWindowTTL:   cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanup,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"path":                cfg.StoragePath,
		"hash_ttl_seconds":    int(cfg.StorageTTL.Seconds()),
		"cleanup_seconds":     int(cfg.StorageCleanup.Seconds()),
	})

	detector := dedup.NewDetector(st, dedup.DefaultThresholds())

	var gen textgen.Generator
	if cfg.RewriteAPIKey != "" {
		client, err := textgen.NewOpenAIClient(textgen.OpenAIConfig{
			Endpoint: cfg.RewriteEndpoint,
			Model:    cfg.RewriteModel,
			APIKey:   cfg.RewriteAPIKey,
			Timeout:  cfg.RewriteTimeout,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init rewrite client: %w", err)
		}
		gen = client
	} else {
		log.WarnObj("rewrite api key missing, running on local fallback only", "rewrite_config", cfg.RewriteModel)
	}

	rewriter := rewrite.NewRewriter(gen, rewrite.Options{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RewriteBaseDelay,
	}, log)

	scorer := quality.NewScorer(quality.DefaultWeights(), quality.DefaultLexicon(), quality.Gates{
		MinQuality:    cfg.MinQualityScore,
		MinUniqueness: cfg.MinUniquenessScore,
	})
	categorizer := quality.NewCategorizer(nil)

	fetchClient := httpclient.NewRestyClient(cfg.FetchTimeout, cfg.MaxConnections)
	registry := sources.DefaultRegistry(fetchClient)

	listRetry := httpclient.DefaultRetryPolicy()
	listRetry.MaxAttempts = cfg.MaxRetries

	processor := pipeline.NewProcessor(
		detector, rewriter, scorer, categorizer, st, registry, fanout,
		pipeline.Options{
			ListRetry:  listRetry,
			Politeness: cfg.PolitenessDelay,
		},
		log,
	)

	sched := scheduler.New(scheduler.Config{
		PollInterval:          cfg.PollInterval,
		MinInterval:           cfg.MinInterval,
		MaxInterval:           cfg.MaxInterval,
		ConcurrencyLimit:      cfg.ConcurrencyLimit,
		FailurePenalty:        cfg.FailurePenalty,
		SuccessBonus:          cfg.SuccessBonus,
		LowActivityThreshold:  cfg.LowActivityThreshold,
		HighActivityThreshold: cfg.HighActivityThresh,
		SnapshotInterval:      cfg.SnapshotInterval,
		HighPriorityDomains:   cfg.HighPriorityDomains,
		FetchTimeout:          cfg.FetchTimeout,
		PolitenessDelay:       cfg.PolitenessDelay,
	}, srcs, processor, st, fanout, log)

	return &Engine{cfg: cfg, sched: sched, st: st, log: log}, nil
}

// Run drives the scheduler until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if e == nil || e.sched == nil {
		return fmt.Errorf("engine is not initialized")
	}
	defer e.closeStore()

	e.sched.Run(ctx)
	return nil
}

func (e *Engine) closeStore() {
	if e == nil || e.st == nil {
		return
	}
	if err := e.st.Close(); err != nil {
		e.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
