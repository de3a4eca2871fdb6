package dedup

import (
	"fmt"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
)

// Match kinds reported in a verdict, ordered by detection cost.
const (
	MatchNone    = "none"
	MatchExact   = "exact"
	MatchHash    = "hash"
	MatchSimilar = "similar"
)

// Verdict is the result of a duplicate check.
type Verdict struct {
	IsDuplicate bool
	Similarity  float64
	MatchedID   string
	MatchKind   string
}

// CandidateIndex is the slice of the storage collaborator the detector needs.
type CandidateIndex interface {
	ExistsByLink(link string) (string, bool, error)
	FindRecentHashCandidates(hashPrefix string, limit int) ([]domain.StoredItem, error)
}

// Thresholds are the tunable similarity cutoffs. The defaults come from
// observed behavior on the production corpus and are deliberately exposed
// as configuration rather than constants.
type Thresholds struct {
	BodySimilarity float64 // declare duplicate at or above this cosine similarity
	TitleOverlap   float64 // Jaccard overlap that marks titles as near-identical
	LoweredBody    float64 // relaxed body threshold when titles overlap
	HashPrefixLen  int
	CandidateLimit int
}

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BodySimilarity: 0.85,
		TitleOverlap:   0.70,
		LoweredBody:    0.60,
		HashPrefixLen:  8,
		CandidateLimit: 10,
	}
}

// Detector decides whether a candidate item has already been ingested.
// Checks are layered cheapest-first and short-circuit on the first match.
type Detector struct {
	index CandidateIndex
	th    Thresholds
}

// NewDetector builds a detector over the given candidate index.
func NewDetector(index CandidateIndex, th Thresholds) *Detector {
	if th.BodySimilarity <= 0 {
		th = DefaultThresholds()
	}
	return &Detector{index: index, th: th}
}

// Hash exposes the content hash the store records at save time, so that
// save and check agree on the fingerprint.
func (d *Detector) Hash(body string) string {
	return ContentHash(body)
}

// Check runs the layered duplicate detection for one candidate item.
func (d *Detector) Check(title, body, link string) (Verdict, error) {
	if d == nil || d.index == nil {
		return Verdict{MatchKind: MatchNone}, fmt.Errorf("duplicate detector is not initialized")
	}

	// 1. Exact link match.
	if id, ok, err := d.index.ExistsByLink(link); err != nil {
		return Verdict{MatchKind: MatchNone}, fmt.Errorf("link lookup: %w", err)
	} else if ok {
		return Verdict{IsDuplicate: true, Similarity: 1.0, MatchedID: id, MatchKind: MatchExact}, nil
	}

	// 2+3. Hash window: exact normalized-content hash, then pairwise
	// similarity over candidates sharing the hash prefix.
	hash := ContentHash(body)
	prefix := hash
	if len(prefix) > d.th.HashPrefixLen {
		prefix = prefix[:d.th.HashPrefixLen]
	}

	candidates, err := d.index.FindRecentHashCandidates(prefix, d.th.CandidateLimit)
	if err != nil {
		return Verdict{MatchKind: MatchNone}, fmt.Errorf("hash candidates: %w", err)
	}

	for _, cand := range candidates {
		if ContentHash(cand.Body) == hash {
			return Verdict{IsDuplicate: true, Similarity: 1.0, MatchedID: cand.ID, MatchKind: MatchHash}, nil
		}
	}

	for _, cand := range candidates {
		similarity := CosineSimilarity(body, cand.Body)
		if similarity >= d.th.BodySimilarity {
			return Verdict{IsDuplicate: true, Similarity: similarity, MatchedID: cand.ID, MatchKind: MatchSimilar}, nil
		}

		// 4. Republished-with-edits: near-identical titles lower the
		// body acceptance threshold for this comparison only.
		if JaccardWords(title, cand.Title) >= d.th.TitleOverlap && similarity >= d.th.LoweredBody {
			return Verdict{IsDuplicate: true, Similarity: similarity, MatchedID: cand.ID, MatchKind: MatchSimilar}, nil
		}
	}

	return Verdict{MatchKind: MatchNone}, nil
}
