package domain

import "time"

// Domain contains the core models shared across the engine.

// SourceKind classifies an external content origin.
type SourceKind string

const (
	KindNews   SourceKind = "news"
	KindFeed   SourceKind = "feed"
	KindVideo  SourceKind = "video"
	KindSocial SourceKind = "social"
	KindOther  SourceKind = "other"
)

// HealthStatus reflects the last observed state of a source.
type HealthStatus string

const (
	HealthActive   HealthStatus = "active"
	HealthInactive HealthStatus = "inactive"
	HealthErroring HealthStatus = "erroring"
)

// Source describes one external content origin. Origin URLs are unique
// across all loaded sources; the scheduler is the only mutator of Health.
type Source struct {
	ID           string
	Name         string
	OriginURL    string
	Kind         SourceKind
	BaseInterval time.Duration
	ItemCap      int
	Enabled      bool
	Health       HealthStatus
}

// RawItem is the normalized record a source adapter extracts for one
// candidate link. Title and Body are always non-empty; adapters discard
// items they cannot extract instead of emitting partial records.
type RawItem struct {
	Title       string
	Body        string
	Link        string
	ImageURL    string
	PublishedAt *time.Time
}

// RejectReason explains why an item did not get persisted.
type RejectReason string

const (
	RejectNone          RejectReason = "none"
	RejectDuplicate     RejectReason = "duplicate"
	RejectLowQuality    RejectReason = "low-quality"
	RejectLowUniqueness RejectReason = "low-uniqueness"
	RejectProcessing    RejectReason = "processing-error"
)

// Outcome is the result of running one RawItem through the pipeline.
// When Accepted is true, Reason is RejectNone and both scores met the
// configured gates.
type Outcome struct {
	Accepted   bool
	Reason     RejectReason
	Title      string
	Body       string
	Quality    float64
	Uniqueness float64
	Categories []string
	Tags       []string
	Duration   time.Duration
	SavedID    string
	// StorageFailed marks an accepted item whose save failed. The item
	// still counts as processed so a broken store never masquerades as
	// a quality rejection.
	StorageFailed bool
}

// StoredItem is the slice of a persisted article the duplicate detector
// compares candidates against.
type StoredItem struct {
	ID    string
	Title string
	Body  string
}
