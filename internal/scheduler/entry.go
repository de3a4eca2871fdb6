package scheduler

import (
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
)

// Priority orders sources when more are due than the concurrency limit
// allows. Higher values run first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// priorityFor derives the scheduling priority from the source kind,
// promoting sources on the configured fast-turnaround domains.
func priorityFor(src domain.Source, highPriorityDomains []string) Priority {
	host := hostOf(src.OriginURL)
	for _, domainSuffix := range highPriorityDomains {
		suffix := strings.ToLower(strings.TrimSpace(domainSuffix))
		if suffix != "" && (host == suffix || strings.HasSuffix(host, "."+suffix)) {
			return PriorityCritical
		}
	}

	switch src.Kind {
	case domain.KindNews, domain.KindSocial:
		return PriorityHigh
	case domain.KindFeed, domain.KindVideo:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// Entry is the mutable scheduling state for one source. All fields are
// guarded by the scheduler mutex.
type Entry struct {
	Source   domain.Source
	Priority Priority

	Interval    time.Duration
	NextRun     time.Time
	LastRun     time.Time
	LastSuccess time.Time
	LastFailure time.Time

	ConsecutiveFailures int
	SuccessRate         float64

	// Exponential moving averages over recent runs.
	EMAItems    float64
	EMADuration time.Duration

	TotalRuns  int
	TotalItems int
}

// emaAlpha weights the newest sample at 30 percent.
const emaAlpha = 0.3

func ema(old, sample float64) float64 {
	return old*(1-emaAlpha) + sample*emaAlpha
}

// lowActivityStretch slows down sources that keep yielding almost nothing.
const lowActivityStretch = 1.3

// intervalPolicy computes the next polling interval from run results.
type intervalPolicy struct {
	Min            time.Duration
	Max            time.Duration
	FailurePenalty float64
	SuccessBonus   float64
	LowActivity    int
	HighActivity   int
}

// next returns the interval to wait before the next run. Failures back
// off exponentially; productive sources speed up and quiet ones slow down.
func (p intervalPolicy) next(base time.Duration, consecutiveFailures, yield int) time.Duration {
	if consecutiveFailures > 0 {
		penalty := math.Pow(p.FailurePenalty, float64(consecutiveFailures))
		return p.clamp(time.Duration(float64(base) * penalty))
	}

	switch {
	case yield > p.HighActivity:
		return p.clamp(time.Duration(float64(base) * p.SuccessBonus))
	case yield > 0 && yield <= p.LowActivity:
		return p.clamp(time.Duration(float64(base) * lowActivityStretch))
	default:
		return p.clamp(base)
	}
}

func (p intervalPolicy) clamp(d time.Duration) time.Duration {
	if d < p.Min {
		return p.Min
	}
	if d > p.Max {
		return p.Max
	}
	return d
}
