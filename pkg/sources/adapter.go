package sources

import (
	"context"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
)

// Adapter extracts content from one family of sources. Implementations
// are stateless; all request state travels through the context and the
// source descriptor so a single adapter instance serves concurrent runs.
type Adapter interface {
	// ListCandidateLinks returns absolute article URLs discovered on the
	// source's origin page, newest first where the source exposes order.
	ListCandidateLinks(ctx context.Context, src domain.Source) ([]string, error)

	// ParseItem fetches and extracts a single article. Adapters return an
	// error rather than a partial item when the title or body cannot be
	// extracted.
	ParseItem(ctx context.Context, src domain.Source, url string) (*domain.RawItem, error)
}
