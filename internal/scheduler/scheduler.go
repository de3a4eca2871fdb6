package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
	"github.com/vestnik-hq/vestnik-content-engine/internal/pipeline"
	"github.com/vestnik-hq/vestnik-content-engine/internal/store"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/publishers"
)

// Runner executes one harvesting run over a source.
type Runner interface {
	RunSource(ctx context.Context, src domain.Source) (pipeline.Stats, error)
}

// Config carries the scheduler tunables.
type Config struct {
	PollInterval     time.Duration
	MinInterval      time.Duration
	MaxInterval      time.Duration
	ConcurrencyLimit int

	FailurePenalty        float64
	SuccessBonus          float64
	LowActivityThreshold  int
	HighActivityThreshold int

	SnapshotInterval    time.Duration
	HighPriorityDomains []string

	// FetchTimeout and PolitenessDelay bound a whole run: one listing
	// fetch plus ItemCap item fetches plus the politeness gaps between them.
	FetchTimeout    time.Duration
	PolitenessDelay time.Duration
}

// erroringAfter is the consecutive-failure count that flips a source's
// health to erroring.
const erroringAfter = 3

// Scheduler owns the adaptive polling loop. It keeps one entry per
// enabled source, dispatches due entries under the concurrency limit,
// and adapts each interval to the observed run results.
type Scheduler struct {
	cfg    Config
	policy intervalPolicy
	runner Runner
	st     store.Store
	fanout *publishers.Fanout
	log    logger.Logger

	mu       sync.Mutex
	entries  map[string]*Entry
	inflight map[string]struct{}

	wg    sync.WaitGroup
	clock func() time.Time
}

// New builds a scheduler over the given sources. Previously persisted
// state, when present and still matching a loaded source, is restored;
// fresh entries are staggered over the first minutes so a cold start
// does not hammer every source at once.
func New(cfg Config, srcs []domain.Source, runner Runner, st store.Store, fanout *publishers.Fanout, log logger.Logger) *Scheduler {
	s := &Scheduler{
		cfg: cfg,
		policy: intervalPolicy{
			Min:            cfg.MinInterval,
			Max:            cfg.MaxInterval,
			FailurePenalty: cfg.FailurePenalty,
			SuccessBonus:   cfg.SuccessBonus,
			LowActivity:    cfg.LowActivityThreshold,
			HighActivity:   cfg.HighActivityThreshold,
		},
		runner:   runner,
		st:       st,
		fanout:   fanout,
		log:      logger.Ensure(log),
		entries:  make(map[string]*Entry, len(srcs)),
		inflight: make(map[string]struct{}),
		clock:    time.Now,
	}

	now := s.clock()
	fresh := 0
	for _, src := range srcs {
		if !src.Enabled {
			continue
		}
		s.entries[src.ID] = &Entry{
			Source:      src,
			Priority:    priorityFor(src, cfg.HighPriorityDomains),
			Interval:    s.policy.clamp(src.BaseInterval),
			NextRun:     now.Add(staggerOffset(fresh)),
			SuccessRate: 100,
		}
		fresh++
	}

	s.restoreState(now)
	return s
}

// firstRunWindow spreads cold-start first runs over five minutes.
const firstRunWindow = 5 * time.Minute

func staggerOffset(index int) time.Duration {
	step := 30 * time.Second
	offset := time.Duration(index) * step
	if offset > firstRunWindow {
		offset = firstRunWindow
	}
	return offset
}

// WithClock overrides the clock; used by tests.
func (s *Scheduler) WithClock(clock func() time.Time) *Scheduler {
	s.clock = clock
	return s
}

// Run drives the polling loop until ctx is cancelled, then waits for
// in-flight runs and persists a final state snapshot.
func (s *Scheduler) Run(ctx context.Context) {
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	snapshotEvery := s.cfg.SnapshotInterval
	if snapshotEvery <= 0 {
		snapshotEvery = 10 * time.Minute
	}
	snapshot := time.NewTicker(snapshotEvery)
	defer snapshot.Stop()

	s.log.InfoObj("scheduler started", "scheduler", map[string]any{
		"sources":     len(s.entries),
		"poll":        s.cfg.PollInterval.String(),
		"concurrency": s.cfg.ConcurrencyLimit,
	})

	s.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.persistState()
			s.log.InfoObj("scheduler stopped", "scheduler", s.StatusReport())
			return
		case <-poll.C:
			s.dispatch(ctx)
		case <-snapshot.C:
			s.persistState()
		}
	}
}

// dispatch starts runs for due entries, highest priority first, without
// exceeding the concurrency limit.
func (s *Scheduler) dispatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	now := s.clock()

	var due []*Entry
	for _, entry := range s.entries {
		if _, running := s.inflight[entry.Source.ID]; running {
			continue
		}
		if !entry.NextRun.After(now) {
			due = append(due, entry)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		return due[i].NextRun.Before(due[j].NextRun)
	})

	slots := s.cfg.ConcurrencyLimit - len(s.inflight)
	if slots > len(due) {
		slots = len(due)
	}

	started := due[:slots]
	for _, entry := range started {
		s.inflight[entry.Source.ID] = struct{}{}
	}
	s.mu.Unlock()

	for _, entry := range started {
		src := entry.Source
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runOne(ctx, src)
		}()
	}
}

// runOne executes a single source run under its computed ceiling and
// feeds the result back into the entry.
func (s *Scheduler) runOne(ctx context.Context, src domain.Source) {
	// Shutdown waits for in-flight runs instead of aborting them, so the
	// run outlives loop cancellation and only its ceiling bounds it. The
	// run report rides the same detached context so the final runs still
	// reach the publishers.
	detached := context.WithoutCancel(ctx)
	runCtx, cancel := context.WithTimeout(detached, s.runCeiling(src))
	defer cancel()

	started := s.clock()
	stats, err := s.runner.RunSource(runCtx, src)
	elapsed := s.clock().Sub(started)

	s.applyResult(src.ID, stats, elapsed, err)
	s.publishRunReport(detached, src, stats, elapsed, err)

	s.mu.Lock()
	delete(s.inflight, src.ID)
	s.mu.Unlock()
}

// runCeiling bounds one run: the listing fetch, every item fetch, and
// the politeness gaps between items.
func (s *Scheduler) runCeiling(src domain.Source) time.Duration {
	fetches := time.Duration(src.ItemCap+1) * s.cfg.FetchTimeout
	gaps := time.Duration(src.ItemCap) * s.cfg.PolitenessDelay
	return fetches + gaps
}

// applyResult updates the entry's statistics, health, and next interval.
func (s *Scheduler) applyResult(sourceID string, stats pipeline.Stats, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sourceID]
	if !ok {
		return
	}

	now := s.clock()
	entry.LastRun = now
	entry.TotalRuns++

	if err != nil {
		entry.LastFailure = now
		entry.ConsecutiveFailures++
		entry.SuccessRate *= 0.9
		if entry.ConsecutiveFailures >= erroringAfter {
			entry.Source.Health = domain.HealthErroring
		}
		entry.Interval = s.policy.next(entry.Source.BaseInterval, entry.ConsecutiveFailures, 0)
		entry.NextRun = now.Add(entry.Interval)

		s.log.WarnObj("source run failed", "run_failure", map[string]any{
			"source":               sourceID,
			"consecutive_failures": entry.ConsecutiveFailures,
			"next_interval":        entry.Interval.String(),
			"error":                err.Error(),
		})
		return
	}

	entry.LastSuccess = now
	entry.ConsecutiveFailures = 0
	entry.Source.Health = domain.HealthActive
	entry.SuccessRate = minFloat(100, entry.SuccessRate*0.9+10)
	entry.TotalItems += stats.Accepted
	// Yield is what actually got saved; a run whose items were all
	// rejected must not speed the source up.
	entry.EMAItems = ema(entry.EMAItems, float64(stats.Accepted))
	entry.EMADuration = time.Duration(ema(float64(entry.EMADuration), float64(elapsed)))

	entry.Interval = s.policy.next(entry.Source.BaseInterval, 0, stats.Accepted)
	entry.NextRun = now.Add(entry.Interval)

	s.log.InfoObj("source run completed", "run_result", map[string]any{
		"source":        sourceID,
		"found":         stats.Found,
		"processed":     stats.Processed,
		"accepted":      stats.Accepted,
		"duplicates":    stats.Duplicates,
		"low_quality":   stats.LowQuality,
		"errors":        stats.Errors,
		"elapsed":       elapsed.String(),
		"next_interval": entry.Interval.String(),
	})
}

func (s *Scheduler) publishRunReport(ctx context.Context, src domain.Source, stats pipeline.Stats, elapsed time.Duration, err error) {
	if s.fanout == nil || s.fanout.Len() == 0 {
		return
	}

	report := &publishers.RunReport{
		Found:         stats.Found,
		Processed:     stats.Processed,
		Accepted:      stats.Accepted,
		Duplicates:    stats.Duplicates,
		LowQuality:    stats.LowQuality,
		Errors:        stats.Errors,
		AvgQuality:    stats.AvgQuality,
		AvgUniqueness: stats.AvgUniqueness,
		Duration:      elapsed,
	}
	if err != nil {
		report.Failed = true
		report.FailureReason = err.Error()
	}

	s.fanout.Publish(ctx, publishers.Event{
		Type:       publishers.EventRunReport,
		SourceID:   src.ID,
		SourceName: src.Name,
		Run:        report,
		EmittedAt:  s.clock(),
	})
}

// SourceStatus is one row of the scheduler status report.
type SourceStatus struct {
	SourceID            string  `json:"source_id"`
	Priority            string  `json:"priority"`
	Health              string  `json:"health"`
	Interval            string  `json:"interval"`
	NextRun             string  `json:"next_run"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	SuccessRate         float64 `json:"success_rate"`
	EMAItems            float64 `json:"ema_items"`
	TotalRuns           int     `json:"total_runs"`
	TotalItems          int     `json:"total_items"`
	Running             bool    `json:"running"`
}

// StatusReport returns a point-in-time view of every entry, ordered by id.
func (s *Scheduler) StatusReport() []SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SourceStatus, 0, len(s.entries))
	for id, entry := range s.entries {
		_, running := s.inflight[id]
		out = append(out, SourceStatus{
			SourceID:            id,
			Priority:            entry.Priority.String(),
			Health:              string(entry.Source.Health),
			Interval:            entry.Interval.String(),
			NextRun:             entry.NextRun.Format(time.RFC3339),
			ConsecutiveFailures: entry.ConsecutiveFailures,
			SuccessRate:         entry.SuccessRate,
			EMAItems:            entry.EMAItems,
			TotalRuns:           entry.TotalRuns,
			TotalItems:          entry.TotalItems,
			Running:             running,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
