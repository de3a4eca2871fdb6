package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
)

// Package store provides the persistence backend for processed articles,
// the duplicate-detection indexes, and the scheduler state snapshot.

// ErrDuplicateLink is returned by Save when the original link is already
// stored. The unique link constraint is the last-resort safety net behind
// the duplicate detector.
var ErrDuplicateLink = errors.New("article link already stored")

// Article is the persisted form of an accepted item.
type Article struct {
	ID           string     `json:"id"`
	SourceID     string     `json:"source_id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Summary      string     `json:"summary"`
	OriginalLink string     `json:"original_link"`
	ImageURL     string     `json:"image_url,omitempty"`
	Quality      float64    `json:"quality"`
	Uniqueness   float64    `json:"uniqueness"`
	Tags         []string   `json:"tags,omitempty"`
	Categories   []string   `json:"categories,omitempty"`
	ContentHash  string     `json:"content_hash"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	SavedAt      time.Time  `json:"saved_at"`
}

// Store is the storage collaborator contract consumed by the pipeline,
// duplicate detector, and scheduler.
type Store interface {
	Close() error

	// ExistsByLink reports whether an article with the given original
	// link is stored, returning its id when found.
	ExistsByLink(link string) (string, bool, error)

	// FindRecentHashCandidates returns recently stored items whose
	// content hash starts with the given prefix, bounded by limit.
	FindRecentHashCandidates(hashPrefix string, limit int) ([]domain.StoredItem, error)

	// Save persists the article, enforcing link uniqueness.
	Save(article Article) (string, error)

	// LoadSchedulerState returns the last persisted scheduler snapshot,
	// with ok=false when none exists.
	LoadSchedulerState() ([]byte, bool, error)

	// SaveSchedulerState overwrites the scheduler snapshot.
	SaveSchedulerState(state []byte) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	// HashWindowTTL bounds how long content hashes stay in the
	// fuzzy-duplicate window. Links and articles are kept.
	HashWindowTTL   time.Duration
	CleanupInterval time.Duration
}

const (
	defaultHashWindowTTL   = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.HashWindowTTL <= 0 {
		opts.HashWindowTTL = defaultHashWindowTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                          { return nil }
func (noopStore) ExistsByLink(string) (string, bool, error) { return "", false, nil }
func (noopStore) FindRecentHashCandidates(string, int) ([]domain.StoredItem, error) {
	return nil, nil
}
func (noopStore) Save(Article) (string, error)          { return "", nil }
func (noopStore) LoadSchedulerState() ([]byte, bool, error) { return nil, false, nil }
func (noopStore) SaveSchedulerState([]byte) error       { return nil }
