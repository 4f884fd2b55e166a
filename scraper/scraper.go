// Package scraper walks the PellWall ingredient catalog and turns each
// product detail page into a models.Product.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/daltunay/perfumes/config"
	"github.com/daltunay/perfumes/engine"
	"golang.org/x/time/rate"
)

// Options configures a Walker or an Extractor.
type Options struct {
	// ListingURL is the paginated catalog listing.
	ListingURL string

	// ProductBaseURL prefixes every slug to form a detail-page URL.
	ProductBaseURL string

	// Attempts is the maximum number of detail-page fetches per product.
	Attempts int

	// Delay is the fixed wait between detail-page attempts.
	Delay time.Duration

	// Timeout bounds a single page fetch. Zero means no per-fetch bound.
	Timeout time.Duration

	// Limiter throttles every upstream request. Nil means unthrottled.
	Limiter *rate.Limiter

	// Locator finds fields in page markup. Nil means PellWall markup.
	Locator Locator
}

// OptionsFromConfig builds Options from the application configuration.
func OptionsFromConfig(src config.SourceConfig, fetch config.FetchConfig) Options {
	opts := Options{
		ListingURL:     src.ListingURL,
		ProductBaseURL: src.ProductBaseURL,
		Attempts:       fetch.Attempts,
		Delay:          fetch.Delay,
		Timeout:        fetch.Timeout,
	}
	if fetch.RequestsPerSecond > 0 {
		burst := fetch.Burst
		if burst < 1 {
			burst = 1
		}
		opts.Limiter = rate.NewLimiter(rate.Limit(fetch.RequestsPerSecond), burst)
	}
	return opts
}

func (o Options) locator() Locator {
	if o.Locator != nil {
		return o.Locator
	}
	return PellWall{}
}

// fetcher turns URLs into parsed documents through an engine.
type fetcher struct {
	engine  engine.Engine
	limiter *rate.Limiter
	timeout time.Duration
}

func newFetcher(eng engine.Engine, opts Options) *fetcher {
	return &fetcher{engine: eng, limiter: opts.Limiter, timeout: opts.Timeout}
}

func (f *fetcher) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	res, err := f.engine.Fetch(ctx, &engine.FetchRequest{URL: pageURL, Timeout: f.timeout})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}
