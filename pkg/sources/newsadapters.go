package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vestnik-hq/vestnik-content-engine/internal/domain"
	"github.com/vestnik-hq/vestnik-content-engine/pkg/httpclient"
)

// htmlAdapter extracts articles from an HTML news site using a per-site
// selector profile.
type htmlAdapter struct {
	client  httpclient.Client
	profile selectorProfile
}

var _ Adapter = (*htmlAdapter)(nil)

func newHTMLAdapter(client httpclient.Client, profile selectorProfile) *htmlAdapter {
	return &htmlAdapter{client: client, profile: profile}
}

func (a *htmlAdapter) ListCandidateLinks(ctx context.Context, src domain.Source) ([]string, error) {
	doc, base, err := a.fetchDocument(ctx, src.OriginURL)
	if err != nil {
		return nil, err
	}

	// A reachable listing page with nothing new is a zero-yield run,
	// not a failure.
	return collectLinks(doc, a.profile, base), nil
}

func (a *htmlAdapter) ParseItem(ctx context.Context, src domain.Source, pageURL string) (*domain.RawItem, error) {
	doc, base, err := a.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	title := firstText(doc, a.profile.titleSelectors)
	body := joinedText(doc, a.profile.bodySelectors)
	if title == "" || body == "" {
		return nil, fmt.Errorf("incomplete extraction from %s (title=%t body=%t)", pageURL, title != "", body != "")
	}

	return &domain.RawItem{
		Title:       title,
		Body:        body,
		Link:        pageURL,
		ImageURL:    firstImage(doc, a.profile.imageSelectors, base),
		PublishedAt: firstDate(doc, a.profile.dateSelectors),
	}, nil
}

func (a *htmlAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
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

// Site profiles -------------------------------------------------------------

// Selector lists are ordered newest-markup-first. Adding a fallback
// selector is the usual fix when a site ships a redesign.

func vestiProfile() selectorProfile {
	return selectorProfile{
		linkSelectors: []string{
			"div.list__item a.list__pic-wrapper",
			"h3.list__title a",
			"div.b-item__inner a",
		},
		linkFilter: func(href string) bool {
			return strings.Contains(href, "/article/") || strings.Contains(href, "/doc.html")
		},
		titleSelectors: []string{"h1.article__title", "h1.b-material-head__title", "h1"},
		bodySelectors:  []string{"div.js-mediator-article p", "div.article__text p", "div.b-material-body__text p"},
		imageSelectors: []string{"div.article__main-image img", "img.article__img", "div.b-material-body img"},
		dateSelectors:  []string{"time.article__date", "div.article__date", "time"},
	}
}

func riaProfile() selectorProfile {
	return selectorProfile{
		linkSelectors: []string{
			"a.list-item__title",
			"div.list-item a.list-item__image",
			"a.cell-list__item-link",
		},
		linkFilter: func(href string) bool {
			return strings.Contains(href, ".html")
		},
		titleSelectors: []string{"h1.article__title", "div.article__title", "h1"},
		bodySelectors:  []string{"div.article__text", "div.article__block[data-type=text]", "div.article__body p"},
		imageSelectors: []string{"div.photoview__open img", "div.media img", "img.article__photo"},
		dateSelectors:  []string{"div.article__info-date a", "div.article__info-date", "time"},
	}
}

func tassProfile() selectorProfile {
	return selectorProfile{
		linkSelectors: []string{
			"a.tass_pkg_link-v5WdK",
			"div.news-list a",
			"main a[href*='/']",
		},
		linkFilter: func(href string) bool {
			return strings.Contains(href, "/armiya-i-opk/") || strings.Contains(href, "/politika/") ||
				strings.Contains(href, "/mezhdunarodnaya-panorama/")
		},
		titleSelectors: []string{"h1.tass_pkg_title-xVUT1", "div.news-header__title", "h1"},
		bodySelectors:  []string{"article p", "div.text-block p", "div.news-content p"},
		imageSelectors: []string{"figure img", "div.media-container img"},
		dateSelectors:  []string{"div.PublishedMark_date__LG42P", "dateformat", "time"},
	}
}

func rtProfile() selectorProfile {
	return selectorProfile{
		linkSelectors: []string{
			"a.link.link_color",
			"div.card__heading a",
			"li.listing__column a.link",
		},
		linkFilter: func(href string) bool {
			return !strings.Contains(href, "/tag/") && !strings.Contains(href, "/author/")
		},
		titleSelectors: []string{"h1.article__heading", "h1"},
		bodySelectors:  []string{"div.article__text p", "div.article__summary"},
		imageSelectors: []string{"img.article__cover-image", "div.article__cover img"},
		dateSelectors:  []string{"time.date", "time"},
	}
}
