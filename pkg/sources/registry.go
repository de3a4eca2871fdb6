package sources

import (
	"net/url"
	"strings"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/httpclient"
)

// Registry resolves the adapter for a source. Resolution order: feed
// kinds get the feed adapter, then the longest registered domain suffix
// wins, then the generic fallback.
type Registry struct {
	byDomain map[string]Adapter
	feed     Adapter
	fallback Adapter
}

// NewRegistry builds an empty registry with the given feed and fallback
// adapters.
func NewRegistry(feed, fallback Adapter) *Registry {
	return &Registry{
		byDomain: make(map[string]Adapter),
		feed:     feed,
		fallback: fallback,
	}
}

// Register binds an adapter to a domain suffix. Registering "vesti.ru"
// also covers "www.vesti.ru" and every other subdomain.
func (r *Registry) Register(domainSuffix string, adapter Adapter) {
	suffix := strings.TrimSpace(strings.ToLower(domainSuffix))
	if suffix == "" || adapter == nil {
		return
	}
	r.byDomain[suffix] = adapter
}

// Resolve picks the adapter for the source.
func (r *Registry) Resolve(src domain.Source) Adapter {
	if src.Kind == domain.KindFeed && r.feed != nil {
		return r.feed
	}

	host := hostOf(src.OriginURL)
	if host != "" {
		var best Adapter
		bestLen := 0
		for suffix, adapter := range r.byDomain {
			if !matchesDomain(host, suffix) {
				continue
			}
			if len(suffix) > bestLen {
				best = adapter
				bestLen = len(suffix)
			}
		}
		if best != nil {
			return best
		}
	}

	return r.fallback
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

func matchesDomain(host, suffix string) bool {
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// DefaultRegistry wires the site profiles for the sources harvested in
// production over the shared HTTP client.
func DefaultRegistry(client httpclient.Client) *Registry {
	reg := NewRegistry(newFeedAdapter(client), newGenericAdapter(client))
	reg.Register("vesti.ru", newHTMLAdapter(client, vestiProfile()))
	reg.Register("ria.ru", newHTMLAdapter(client, riaProfile()))
	reg.Register("tass.ru", newHTMLAdapter(client, tassProfile()))
	reg.Register("rt.com", newHTMLAdapter(client, rtProfile()))
	return reg
}
