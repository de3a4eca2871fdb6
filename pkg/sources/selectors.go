package sources

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// selectorProfile describes how to pull structured content out of one
// site's markup. Each selector list is ordered by preference; extraction
// takes the first selector that yields non-empty content, which keeps
// profiles working across incremental site redesigns.
type selectorProfile struct {
	// linkSelectors locate anchors to articles on the listing page.
	linkSelectors []string
	// linkFilter, when set, keeps only hrefs the predicate accepts.
	linkFilter func(href string) bool

	titleSelectors []string
	bodySelectors  []string
	imageSelectors []string
	dateSelectors  []string
}

// firstText returns the trimmed text of the first selector with content.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// joinedText concatenates paragraph-level matches of the first selector
// that yields any, separated by blank lines.
func joinedText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		var parts []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}
	return ""
}

// imageAttrs are checked in order; lazy-loading markup moves the real
// URL into data attributes.
var imageAttrs = []string{"src", "data-src", "data-lazy-src"}

func firstImage(doc *goquery.Document, selectors []string, base *url.URL) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		for _, attr := range imageAttrs {
			if raw, ok := node.Attr(attr); ok && strings.TrimSpace(raw) != "" {
				return absoluteURL(base, raw)
			}
		}
	}
	return ""
}

// dateLayouts covers the formats observed across the harvested sites.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2 January 2006",
}

func firstDate(doc *goquery.Document, selectors []string) *time.Time {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}

		raw, ok := node.Attr("datetime")
		if !ok || strings.TrimSpace(raw) == "" {
			raw, ok = node.Attr("content")
			if !ok || strings.TrimSpace(raw) == "" {
				raw = node.Text()
			}
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return &ts
			}
		}
	}
	return nil
}

// collectLinks walks the listing selectors and returns deduplicated
// absolute URLs in document order.
func collectLinks(doc *goquery.Document, profile selectorProfile, base *url.URL) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, sel := range profile.linkSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			href = strings.TrimSpace(href)
			if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
				return
			}
			if profile.linkFilter != nil && !profile.linkFilter(href) {
				return
			}

			abs := absoluteURL(base, href)
			if abs == "" {
				return
			}
			if _, dup := seen[abs]; dup {
				return
			}
			seen[abs] = struct{}{}
			out = append(out, abs)
		})
		if len(out) > 0 {
			break
		}
	}

	return out
}

func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base == nil {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return base.ResolveReference(ref).String()
}
