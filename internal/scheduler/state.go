package scheduler

import (
	"encoding/json"
	"time"
)

// Scheduler state survives restarts through the store's snapshot slot.
// A snapshot only restores entries whose source id is still configured,
// so removing a source from the config also drops its state.

type snapshotFile struct {
	SavedAt time.Time       `json:"saved_at"`
	Entries []snapshotEntry `json:"entries"`
}

type snapshotEntry struct {
	SourceID            string        `json:"source_id"`
	Interval            time.Duration `json:"interval_ns"`
	NextRun             time.Time     `json:"next_run"`
	LastRun             time.Time     `json:"last_run,omitempty"`
	LastSuccess         time.Time     `json:"last_success,omitempty"`
	LastFailure         time.Time     `json:"last_failure,omitempty"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	SuccessRate         float64       `json:"success_rate"`
	EMAItems            float64       `json:"ema_items"`
	EMADuration         time.Duration `json:"ema_duration_ns"`
	TotalRuns           int           `json:"total_runs"`
	TotalItems          int           `json:"total_items"`
}

// restoreState overlays persisted scheduling state onto freshly built
// entries. Missing or corrupt snapshots mean a cold start, never a
// startup failure.
func (s *Scheduler) restoreState(now time.Time) {
	raw, ok, err := s.st.LoadSchedulerState()
	if err != nil {
		s.log.WarnObj("scheduler state load failed, starting cold", "state_error", map[string]any{"error": err.Error()})
		return
	}
	if !ok {
		return
	}

	var snap snapshotFile
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.WarnObj("scheduler state corrupt, starting cold", "state_error", map[string]any{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, se := range snap.Entries {
		entry, exists := s.entries[se.SourceID]
		if !exists {
			continue
		}

		entry.Interval = s.policy.clamp(se.Interval)
		entry.NextRun = se.NextRun
		entry.LastRun = se.LastRun
		entry.LastSuccess = se.LastSuccess
		entry.LastFailure = se.LastFailure
		entry.ConsecutiveFailures = se.ConsecutiveFailures
		entry.SuccessRate = se.SuccessRate
		entry.EMAItems = se.EMAItems
		entry.EMADuration = se.EMADuration
		entry.TotalRuns = se.TotalRuns
		entry.TotalItems = se.TotalItems

		// Runs missed while the process was down fire on the next poll.
		if entry.NextRun.Before(now) {
			entry.NextRun = now
		}
		restored++
	}

	s.log.InfoObj("scheduler state restored", "state", map[string]any{
		"restored": restored,
		"saved_at": snap.SavedAt.Format(time.RFC3339),
	})
}

// persistState writes the current entries to the store's snapshot slot.
func (s *Scheduler) persistState() {
	s.mu.Lock()
	snap := snapshotFile{SavedAt: s.clock()}
	for id, entry := range s.entries {
		snap.Entries = append(snap.Entries, snapshotEntry{
			SourceID:            id,
			Interval:            entry.Interval,
			NextRun:             entry.NextRun,
			LastRun:             entry.LastRun,
			LastSuccess:         entry.LastSuccess,
			LastFailure:         entry.LastFailure,
			ConsecutiveFailures: entry.ConsecutiveFailures,
			SuccessRate:         entry.SuccessRate,
			EMAItems:            entry.EMAItems,
			EMADuration:         entry.EMADuration,
			TotalRuns:           entry.TotalRuns,
			TotalItems:          entry.TotalItems,
		})
	}
	s.mu.Unlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		s.log.ErrorObj("scheduler state marshal failed", "state_error", map[string]any{"error": err.Error()})
		return
	}
	if err := s.st.SaveSchedulerState(raw); err != nil {
		s.log.ErrorObj("scheduler state save failed", "state_error", map[string]any{"error": err.Error()})
	}
}
