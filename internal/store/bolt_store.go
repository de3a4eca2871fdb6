package store

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
)

const (
	articleBucket = "articles"
	linkBucket    = "links"
	hashBucket    = "hashes"
	metaBucket    = "meta"

	schedulerStateKey = "scheduler_state"
	expiryValueBytes  = 8
)

// boltStore implements Store backed by BoltDB. Links and articles are kept
// for the life of the database; content hashes form a bounded recent window
// and expire on a cleanup cadence.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	hashTTL         time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{articleBucket, linkBucket, hashBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		hashTTL:         opts.HashWindowTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// ExistsByLink checks whether an article with the given original link is stored.
func (b *boltStore) ExistsByLink(link string) (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, nil
	}

	var id string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(linkBucket))
		if bucket == nil {
			return fmt.Errorf("link bucket missing")
		}
		if value := bucket.Get([]byte(link)); value != nil {
			id = string(value)
		}
		return nil
	})
	return id, id != "", err
}

// FindRecentHashCandidates returns stored items whose content hash shares the prefix.
func (b *boltStore) FindRecentHashCandidates(hashPrefix string, limit int) ([]domain.StoredItem, error) {
	if b == nil || b.db == nil || hashPrefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return nil, err
	}

	var items []domain.StoredItem
	err := b.db.View(func(tx *bolt.Tx) error {
		hashes := tx.Bucket([]byte(hashBucket))
		articles := tx.Bucket([]byte(articleBucket))
		if hashes == nil || articles == nil {
			return fmt.Errorf("hash or article bucket missing")
		}

		prefix := []byte(hashPrefix)
		cursor := hashes.Cursor()
		now := time.Now()

		for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
			expiry, id, ok := decodeHashValue(v)
			if !ok || !expiry.After(now) {
				continue
			}

			raw := articles.Get([]byte(id))
			if raw == nil {
				continue
			}
			var art Article
			if err := json.Unmarshal(raw, &art); err != nil {
				continue
			}

			items = append(items, domain.StoredItem{ID: art.ID, Title: art.Title, Body: art.Body})
			if len(items) >= limit {
				break
			}
		}
		return nil
	})
	return items, err
}

// Save persists the article atomically, enforcing the link uniqueness constraint.
func (b *boltStore) Save(article Article) (string, error) {
	if b == nil || b.db == nil {
		return "", fmt.Errorf("store is not initialized")
	}
	if article.OriginalLink == "" {
		return "", fmt.Errorf("article original link is empty")
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return "", err
	}

	if article.ID == "" {
		article.ID = hashID(article.OriginalLink)
	}
	if article.SavedAt.IsZero() {
		article.SavedAt = now
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		links := tx.Bucket([]byte(linkBucket))
		articles := tx.Bucket([]byte(articleBucket))
		hashes := tx.Bucket([]byte(hashBucket))
		if links == nil || articles == nil || hashes == nil {
			return fmt.Errorf("storage buckets missing")
		}

		if existing := links.Get([]byte(article.OriginalLink)); existing != nil {
			return ErrDuplicateLink
		}

		raw, err := json.Marshal(article)
		if err != nil {
			return fmt.Errorf("marshal article: %w", err)
		}
		if err := articles.Put([]byte(article.ID), raw); err != nil {
			return err
		}
		if err := links.Put([]byte(article.OriginalLink), []byte(article.ID)); err != nil {
			return err
		}
		if article.ContentHash != "" {
			value := encodeHashValue(now.Add(b.hashTTL), article.ID)
			if err := hashes.Put([]byte(article.ContentHash), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return article.ID, nil
}

// LoadSchedulerState returns the persisted scheduler snapshot if one exists.
func (b *boltStore) LoadSchedulerState() ([]byte, bool, error) {
	if b == nil || b.db == nil {
		return nil, false, nil
	}

	var state []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(metaBucket))
		if bucket == nil {
			return fmt.Errorf("meta bucket missing")
		}
		if value := bucket.Get([]byte(schedulerStateKey)); value != nil {
			state = append([]byte(nil), value...)
		}
		return nil
	})
	return state, state != nil, err
}

// SaveSchedulerState overwrites the scheduler snapshot.
func (b *boltStore) SaveSchedulerState(state []byte) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(metaBucket))
		if bucket == nil {
			return fmt.Errorf("meta bucket missing")
		}
		return bucket.Put([]byte(schedulerStateKey), state)
	})
}

// maybeCleanupExpired drops expired hash-window entries on a fixed cadence
// to keep the fuzzy-duplicate candidate set bounded.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(hashBucket))
		if bucket == nil {
			return fmt.Errorf("hash bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeHashValue(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// encodeHashValue packs an expiry timestamp and article id into one value.
func encodeHashValue(expiry time.Time, id string) []byte {
	buf := make([]byte, expiryValueBytes+len(id))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	copy(buf[expiryValueBytes:], id)
	return buf
}

// decodeHashValue unpacks the expiry and article id from a stored value.
func decodeHashValue(value []byte) (time.Time, string, bool) {
	if len(value) <= expiryValueBytes {
		return time.Time{}, "", false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, "", false
	}
	return time.Unix(unix, 0), string(value[expiryValueBytes:]), true
}

func hashID(link string) string {
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}
