package quality

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
)

// Report carries the composite score and its sub-scores, all on 0-100.
type Report struct {
	Overall            float64
	Readability        float64
	InformationDensity float64
	Structure          float64
	KeywordRelevance   float64
	Uniqueness         float64
	Engagement         float64
}

// Weights combines sub-scores into the overall score; they must sum to 1.
type Weights struct {
	Readability        float64
	InformationDensity float64
	Structure          float64
	KeywordRelevance   float64
	Uniqueness         float64
	Engagement         float64
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Readability:        0.2,
		InformationDensity: 0.15,
		Structure:          0.15,
		KeywordRelevance:   0.2,
		Uniqueness:         0.2,
		Engagement:         0.1,
	}
}

// Gates are the publication thresholds; both must be met.
type Gates struct {
	MinQuality    float64
	MinUniqueness float64
}

// Scorer computes the composite quality score that gates publication.
// Scoring is a pure function of its inputs aside from the injectable
// clock used by the current-year engagement check.
type Scorer struct {
	weights Weights
	lexicon *Lexicon
	gates   Gates
	now     func() time.Time
}

// NewScorer builds a scorer; nil lexicon and zero weights fall back to defaults.
func NewScorer(weights Weights, lexicon *Lexicon, gates Gates) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	if gates.MinQuality <= 0 {
		gates.MinQuality = 60
	}
	if gates.MinUniqueness <= 0 {
		gates.MinUniqueness = 70
	}
	return &Scorer{weights: weights, lexicon: lexicon, gates: gates, now: time.Now}
}

// WithClock overrides the clock; used by tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score computes the weighted composite for a rewritten item. The
// uniqueness sub-score is supplied by the caller (rewrite vs original
// similarity) rather than derived from the text itself.
func (s *Scorer) Score(title, body string, uniqueness float64) Report {
	readability := scoreReadability(body)
	density := scoreInformationDensity(body)
	structure := scoreStructure(body)
	relevance := s.scoreKeywordRelevance(body)
	engagement := s.scoreEngagement(title, body)
	uniqueness = clamp(uniqueness)

	overall := readability*s.weights.Readability +
		density*s.weights.InformationDensity +
		structure*s.weights.Structure +
		relevance*s.weights.KeywordRelevance +
		uniqueness*s.weights.Uniqueness +
		engagement*s.weights.Engagement

	return Report{
		Overall:            clamp(overall),
		Readability:        readability,
		InformationDensity: density,
		Structure:          structure,
		KeywordRelevance:   relevance,
		Uniqueness:         uniqueness,
		Engagement:         engagement,
	}
}

// Gate applies the publication thresholds to a report.
func (s *Scorer) Gate(rep Report) (bool, domain.RejectReason) {
	if rep.Uniqueness < s.gates.MinUniqueness {
		return false, domain.RejectLowUniqueness
	}
	if rep.Overall < s.gates.MinQuality {
		return false, domain.RejectLowQuality
	}
	return true, domain.RejectNone
}

// Sub-scores ---------------------------------------------------------------

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// scoreReadability rates average sentence length against the optimal
// 15-20 words-per-sentence band.
func scoreReadability(text string) float64 {
	words := len(strings.Fields(text))
	sentences := 0
	for _, part := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			sentences++
		}
	}
	if sentences == 0 || words == 0 {
		return 0
	}

	avg := float64(words) / float64(sentences)
	switch {
	case avg >= 15 && avg <= 20:
		return 100
	case avg < 15:
		return clamp(80 + (avg/15)*20)
	default:
		return clamp(maxf(20, 100-(avg-20)*3))
	}
}

var (
	numberPattern     = regexp.MustCompile(`\d+`)
	datePattern       = regexp.MustCompile(`\d{1,2}[./]\d{1,2}[./]\d{2,4}`)
	properNounBigram  = regexp.MustCompile(`\p{Lu}\p{Ll}+\s+\p{Lu}\p{Ll}+`)
	capitalizedToken  = regexp.MustCompile(`(^|\s)\p{Lu}\p{Ll}{2,}`)
	listMarkerPattern = regexp.MustCompile(`(^|\n)\s*([•\-\*]|\d+\.)\s+`)
	capsRunPattern    = regexp.MustCompile(`[\p{Lu}\s]{10,}`)
)

// scoreInformationDensity counts factual tokens (numbers, dates, names,
// capitalized entities) relative to total length.
func scoreInformationDensity(text string) float64 {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}

	elements := len(numberPattern.FindAllString(text, -1)) +
		len(datePattern.FindAllString(text, -1)) +
		len(properNounBigram.FindAllString(text, -1)) +
		len(capitalizedToken.FindAllString(text, -1))

	density := float64(elements) / float64(words) * 100
	return clamp(density * 10)
}

// discourseConnectives signal logically structured prose.
var discourseConnectives = []string{
	"во-первых", "во-вторых", "кроме того", "также", "однако", "поэтому",
	"firstly", "secondly", "moreover", "however", "therefore", "in addition",
}

// scoreStructure rewards paragraphs, enumerations, heading-like runs, and
// discourse connectives.
func scoreStructure(text string) float64 {
	score := 0.0

	if len(strings.Split(text, "\n\n")) > 1 {
		score += 30
	}
	if listMarkerPattern.MatchString(text) {
		score += 20
	}
	if capsRunPattern.MatchString(text) {
		score += 20
	}

	lower := strings.ToLower(text)
	for _, connective := range discourseConnectives {
		if strings.Contains(lower, connective) {
			score += 5
		}
	}

	return clamp(score)
}

// scoreKeywordRelevance computes the weighted hit-rate against the
// three-tier domain lexicon (weights 3/2/1).
func (s *Scorer) scoreKeywordRelevance(text string) float64 {
	lower := strings.ToLower(text)

	tiers := []struct {
		words  []string
		weight float64
	}{
		{s.lexicon.High, 3},
		{s.lexicon.Medium, 2},
		{s.lexicon.Basic, 1},
	}

	var total, hit float64
	for _, tier := range tiers {
		for _, keyword := range tier.words {
			total += tier.weight
			if strings.Contains(lower, keyword) {
				hit += tier.weight
			}
		}
	}
	if total == 0 {
		return 0
	}
	return clamp(hit / total * 100)
}

// emotionalTitleWords raise the engagement estimate when present in a headline.
var emotionalTitleWords = []string{
	"новый", "мощный", "секретный", "уникальный", "первый", "эксклюзивный",
	"new", "powerful", "secret", "unique", "first", "exclusive",
}

var largeNumberPattern = regexp.MustCompile(`\d+\s*(%|млн|тыс|миллион|million|billion|thousand)`)

// scoreEngagement is an additive heuristic over headline and body signals.
func (s *Scorer) scoreEngagement(title, body string) float64 {
	score := 0.0
	titleLower := strings.ToLower(title)

	for _, word := range emotionalTitleWords {
		if strings.Contains(titleLower, word) {
			score += 10
		}
	}
	if strings.Contains(title, "?") {
		score += 15
	}
	if numberPattern.MatchString(title) {
		score += 10
	}

	if strings.ContainsAny(body, `"«»`) {
		score += 10
	}
	if largeNumberPattern.MatchString(body) {
		score += 15
	}
	if strings.Contains(body, strconv.Itoa(s.now().Year())) {
		score += 10
	}

	return clamp(score)
}

// Categorizer ---------------------------------------------------------------

// Categorizer predicts editorial category labels from keyword hits.
type Categorizer struct {
	categories []Category
}

// NewCategorizer builds a categorizer; nil falls back to the default taxonomy.
func NewCategorizer(categories []Category) *Categorizer {
	if len(categories) == 0 {
		categories = DefaultCategories()
	}
	return &Categorizer{categories: categories}
}

// Predict returns up to three category labels ordered by confidence.
func (c *Categorizer) Predict(title, body string) []string {
	text := strings.ToLower(title + " " + body)

	type scored struct {
		label string
		score float64
	}
	var matches []scored

	for _, cat := range c.categories {
		hits := 0.0
		for _, keyword := range cat.Keywords {
			if strings.Contains(text, keyword) {
				hits += cat.Weight
			}
		}
		if hits > 0 {
			matches = append(matches, scored{
				label: cat.Label,
				score: hits / float64(len(cat.Keywords)) * 100,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].label < matches[j].label
	})

	labels := make([]string, 0, 3)
	for _, m := range matches {
		labels = append(labels, m.label)
		if len(labels) == 3 {
			break
		}
	}
	return labels
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
