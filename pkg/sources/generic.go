package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/httpclient"
)

// genericAdapter is the fallback for sites without a dedicated profile.
// Listing keeps same-host links that look like articles; extraction
// leans on Open Graph metadata plus common article markup.
type genericAdapter struct {
	client httpclient.Client
}

var _ Adapter = (*genericAdapter)(nil)

func newGenericAdapter(client httpclient.Client) *genericAdapter {
	return &genericAdapter{client: client}
}

// articlePathPattern matches paths that carry a slug or numeric id,
// which filters out section and tag pages.
var articlePathPattern = regexp.MustCompile(`/[\p{L}\d-]*(\d{4,}|[\p{L}\d]+-[\p{L}\d-]+)`)

func (a *genericAdapter) ListCandidateLinks(ctx context.Context, src domain.Source) ([]string, error) {
	doc, base, err := a.fetchDocument(ctx, src.OriginURL)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, fmt.Errorf("invalid origin url %q", src.OriginURL)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := absoluteURL(base, href)
		if abs == "" {
			return
		}

		parsed, err := url.Parse(abs)
		if err != nil || parsed.Host != base.Host {
			return
		}
		if !articlePathPattern.MatchString(parsed.Path) {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})

	// An empty result is a valid zero-yield run for unknown layouts.
	return links, nil
}

func (a *genericAdapter) ParseItem(ctx context.Context, src domain.Source, pageURL string) (*domain.RawItem, error) {
	doc, base, err := a.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	title := metaContent(doc, `meta[property="og:title"]`)
	if title == "" {
		title = firstText(doc, []string{"h1", "title"})
	}

	body := joinedText(doc, []string{"article p", "div[itemprop=articleBody] p", "main p"})
	if body == "" {
		body = metaContent(doc, `meta[property="og:description"]`)
	}

	if title == "" || body == "" {
		return nil, fmt.Errorf("incomplete extraction from %s (title=%t body=%t)", pageURL, title != "", body != "")
	}

	image := metaContent(doc, `meta[property="og:image"]`)
	if image != "" {
		image = absoluteURL(base, image)
	}

	item := &domain.RawItem{
		Title:    title,
		Body:     body,
		Link:     pageURL,
		ImageURL: image,
	}
	if published := firstDate(doc, []string{`meta[property="article:published_time"]`, "time"}); published != nil {
		item.PublishedAt = published
	}
	return item, nil
}

func (a *genericAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	body, err := httpclient.Fetch(ctx, a.client, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html from %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	return doc, base, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// stripTags flattens embedded HTML fragments into plain text.
func stripTags(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, " "))
}
