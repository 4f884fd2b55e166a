package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/daltunay/perfumes/cleaner"
	"github.com/daltunay/perfumes/engine"
	"github.com/daltunay/perfumes/metrics"
	"github.com/daltunay/perfumes/models"
)

const (
	defaultAttempts = 10
	defaultDelay    = time.Second
)

// Extractor fetches product detail pages and parses them into products.
// It is safe for concurrent use.
type Extractor struct {
	fetch    *fetcher
	baseURL  string
	locator  Locator
	cleaner  *cleaner.Cleaner
	attempts int
	delay    time.Duration
}

// NewExtractor creates an Extractor that fetches detail pages through eng.
// A nil cleaner leaves Description unset.
func NewExtractor(eng engine.Engine, cl *cleaner.Cleaner, opts Options) *Extractor {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = defaultAttempts
	}
	delay := opts.Delay
	if delay < 0 {
		delay = defaultDelay
	}
	return &Extractor{
		fetch:    newFetcher(eng, opts),
		baseURL:  strings.TrimRight(opts.ProductBaseURL, "/"),
		locator:  opts.locator(),
		cleaner:  cl,
		attempts: attempts,
		delay:    delay,
	}
}

// ProductURL returns the detail-page URL for slug.
func (x *Extractor) ProductURL(slug string) string {
	return x.baseURL + "/" + slug
}

// Extract fetches and parses the product identified by slug. Every failure
// is a *models.ExtractionError.
func (x *Extractor) Extract(ctx context.Context, slug string) (*models.Product, error) {
	start := time.Now()
	p, err := x.extract(ctx, slug)
	metrics.Extractions.WithLabelValues(metrics.Outcome(err)).Inc()
	metrics.ExtractDuration.Observe(time.Since(start).Seconds())
	return p, err
}

func (x *Extractor) extract(ctx context.Context, slug string) (*models.Product, error) {
	pageURL := x.ProductURL(slug)

	doc, err := x.fetchWithRetry(ctx, slug, pageURL)
	if err != nil {
		return nil, &models.ExtractionError{Slug: slug, Err: err}
	}
	return x.Parse(slug, pageURL, doc)
}

// fetchWithRetry tries the detail page up to x.attempts times with a fixed
// delay in between. Only fetch failures are retried; a fetched page that
// fails to parse is not.
func (x *Extractor) fetchWithRetry(ctx context.Context, slug, pageURL string) (*goquery.Document, error) {
	var (
		doc     *goquery.Document
		attempt int
	)
	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.FetchRetries.Inc()
		}
		d, err := x.fetch.document(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			slog.Debug("detail fetch failed", "slug", slug, "attempt", attempt, "error", err)
			return err
		}
		doc = d
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(x.delay), uint64(x.attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("fetch %s: giving up after %d attempts: %w", pageURL, attempt, err)
	}
	return doc, nil
}

// Parse builds a product from a fetched detail page. A page without a title
// fails with a *models.ExtractionError wrapping models.ErrMissingTitle;
// every other field resolves to absent when its markup is missing.
func (x *Extractor) Parse(slug, pageURL string, doc *goquery.Document) (*models.Product, error) {
	name, err := x.locator.Title(doc)
	if err != nil {
		return nil, &models.ExtractionError{Slug: slug, Err: err}
	}

	p := &models.Product{
		Slug: slug,
		URL:  pageURL,
		Name: name,
	}

	if badge, ok := x.locator.TypeBadge(doc); ok {
		p.Type = models.Ptr(strings.ToLower(badge))
	}
	p.Tags = Tags(x.locator.TagLinks(doc))

	details := x.locator.Details(doc)
	p.CASNo = CASNumbers(details[LabelCAS])
	p.Odour = Odour(details[LabelOdour])
	p.Solvent = Solvent(details[LabelSolvent])
	p.Synonyms = SplitList(details[LabelSynonyms])
	p.Manufacturer = models.Ptr(strings.TrimSpace(details[LabelManufacturer]))

	if x.cleaner != nil {
		if fragment, ok := x.locator.Description(doc); ok {
			md, err := x.cleaner.Description(fragment, pageURL)
			if err != nil {
				slog.Debug("description conversion failed", "slug", slug, "error", err)
			} else {
				p.Description = &md
			}
		}
	}

	models.Normalize(p)
	return p, nil
}

