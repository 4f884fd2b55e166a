package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/daltunay/perfumes/engine"
	"github.com/daltunay/perfumes/metrics"
	"github.com/daltunay/perfumes/models"
)

// Walker enumerates product slugs by paging through the catalog listing.
type Walker struct {
	fetch      *fetcher
	listingURL string
	locator    Locator
}

// NewWalker creates a Walker that fetches listing pages through eng.
func NewWalker(eng engine.Engine, opts Options) *Walker {
	return &Walker{
		fetch:      newFetcher(eng, opts),
		listingURL: opts.ListingURL,
		locator:    opts.locator(),
	}
}

// DiscoverIdentifiers walks listing pages 1, 2, ... until a page has no
// product entries and returns every slug found, in page order then
// document order. Duplicates are kept.
//
// Any failure aborts the walk with a *models.CatalogWalkError and no
// partial result.
func (w *Walker) DiscoverIdentifiers(ctx context.Context) ([]string, error) {
	var slugs []string
	for page := 1; ; page++ {
		pageURL, err := w.PageURL(page)
		if err != nil {
			return nil, &models.CatalogWalkError{Page: page, URL: w.listingURL, Err: err}
		}

		links, err := w.listingLinks(ctx, pageURL)
		if err != nil {
			return nil, &models.CatalogWalkError{Page: page, URL: pageURL, Err: err}
		}
		metrics.ListingPages.Inc()

		if len(links) == 0 {
			slog.Info("catalog walk complete", "pages", page-1, "slugs", len(slugs))
			return slugs, nil
		}

		for _, link := range links {
			slug := SlugFromLink(link)
			if slug == "" {
				return nil, &models.CatalogWalkError{
					Page: page,
					URL:  pageURL,
					Err:  fmt.Errorf("%w: %q", ErrMissingLink, link),
				}
			}
			slugs = append(slugs, slug)
		}
		slog.Debug("listing page walked", "page", page, "entries", len(links), "total", len(slugs))
	}
}

func (w *Walker) listingLinks(ctx context.Context, pageURL string) ([]string, error) {
	doc, err := w.fetch.document(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return w.locator.ListingLinks(doc)
}

// PageURL returns the listing URL for a 1-based page number.
func (w *Walker) PageURL(page int) (string, error) {
	if w.listingURL == "" {
		return "", errors.New("listing url not configured")
	}
	u, err := url.Parse(w.listingURL)
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
