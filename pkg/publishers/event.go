package publishers

import "time"

// Event types emitted by the engine.
const (
	EventArticleAccepted = "article_accepted"
	EventRunReport       = "run_report"
)

// Event is the envelope delivered to every publisher. Exactly one of
// Article or Run is set, according to Type.
type Event struct {
	Type       string          `json:"type"`
	SourceID   string          `json:"source_id"`
	SourceName string          `json:"source_name,omitempty"`
	Article    *ArticlePayload `json:"article,omitempty"`
	Run        *RunReport      `json:"run,omitempty"`
	EmittedAt  time.Time       `json:"emitted_at"`
}

// ArticlePayload carries an accepted article.
type ArticlePayload struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Summary      string     `json:"summary,omitempty"`
	OriginalLink string     `json:"original_link"`
	ImageURL     string     `json:"image_url,omitempty"`
	Quality      float64    `json:"quality"`
	Uniqueness   float64    `json:"uniqueness"`
	Categories   []string   `json:"categories,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// RunReport summarizes one scheduler run over a source.
type RunReport struct {
	Found         int           `json:"found"`
	Processed     int           `json:"processed"`
	Accepted      int           `json:"accepted"`
	Duplicates    int           `json:"duplicates"`
	LowQuality    int           `json:"low_quality"`
	Errors        int           `json:"errors"`
	AvgQuality    float64       `json:"avg_quality"`
	AvgUniqueness float64       `json:"avg_uniqueness"`
	Duration      time.Duration `json:"duration_ns"`
	Failed        bool          `json:"failed"`
	FailureReason string        `json:"failure_reason,omitempty"`
}
