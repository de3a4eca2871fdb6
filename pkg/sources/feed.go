package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/httpclient"
)

// feedAdapter handles RSS and Atom sources. Listing parses the feed;
// item parsing re-fetches the feed and extracts the matching entry so
// the adapter stays stateless across the list/parse boundary. Entries
// without usable content fall through to the generic HTML adapter.
type feedAdapter struct {
	client  httpclient.Client
	generic *genericAdapter
}

var _ Adapter = (*feedAdapter)(nil)

func newFeedAdapter(client httpclient.Client) *feedAdapter {
	return &feedAdapter{client: client, generic: newGenericAdapter(client)}
}

func (a *feedAdapter) ListCandidateLinks(ctx context.Context, src domain.Source) ([]string, error) {
	feed, err := a.fetchFeed(ctx, src.OriginURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(feed.Items))
	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	// An empty feed is a zero-yield run, not a failure.
	return links, nil
}

func (a *feedAdapter) ParseItem(ctx context.Context, src domain.Source, link string) (*domain.RawItem, error) {
	feed, err := a.fetchFeed(ctx, src.OriginURL)
	if err != nil {
		return nil, err
	}

	for _, item := range feed.Items {
		if strings.TrimSpace(item.Link) != link {
			continue
		}

		title := strings.TrimSpace(item.Title)
		body := strings.TrimSpace(item.Content)
		if body == "" {
			body = strings.TrimSpace(item.Description)
		}
		if title == "" || body == "" {
			break
		}

		raw := &domain.RawItem{
			Title:       title,
			Body:        stripTags(body),
			Link:        link,
			PublishedAt: item.PublishedParsed,
		}
		if item.Image != nil {
			raw.ImageURL = item.Image.URL
		}
		return raw, nil
	}

	// Entry missing or truncated; extract from the article page instead.
	return a.generic.ParseItem(ctx, src, link)
}

func (a *feedAdapter) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, err := httpclient.Fetch(ctx, a.client, feedURL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	return feed, nil
}
