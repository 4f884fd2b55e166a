// Package ingest runs a full catalog refresh: walk the listing, skip what is
// already stored, extract the rest, persist the results.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/daltunay/perfumes/models"
	"github.com/daltunay/perfumes/scraper"
)

// Walker discovers product slugs.
type Walker interface {
	DiscoverIdentifiers(ctx context.Context) ([]string, error)
}

// ProductStore is the persistence the pipeline needs.
type ProductStore interface {
	Slugs(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, products []*models.Product) error
}

// Purger drops cached query results.
type Purger interface {
	Purge()
}

// RunOptions configures one pipeline run.
type RunOptions struct {
	// Refresh re-extracts slugs that are already stored.
	Refresh bool

	// Concurrency bounds parallel extractions. Values below 1 mean 1.
	Concurrency int

	// Slugs, when non-nil, replaces the catalog walk.
	Slugs []string

	// OnPending is called once the work list is known.
	OnPending func(discovered, pending int)

	// OnProgress is called after each extraction.
	OnProgress scraper.ProgressFunc
}

// Report summarises a run.
type Report struct {
	Discovered int
	Pending    int
	Products   []*models.Product
	Failures   []scraper.Failure
	Duration   time.Duration
}

// Pipeline wires the walker, extractor and store together. Store and cache
// are optional: without a store nothing is skipped or persisted.
type Pipeline struct {
	walker    Walker
	extractor scraper.ProductExtractor
	store     ProductStore
	cache     Purger
}

// NewPipeline creates a Pipeline. st and c may be nil.
func NewPipeline(w Walker, x scraper.ProductExtractor, st ProductStore, c Purger) *Pipeline {
	return &Pipeline{walker: w, extractor: x, store: st, cache: c}
}

// Run executes one ingest. A catalog walk failure or a store failure aborts
// the run; per-product extraction failures are collected in the report.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	start := time.Now()

	discovered := opts.Slugs
	if discovered == nil {
		slugs, err := p.walker.DiscoverIdentifiers(ctx)
		if err != nil {
			return nil, err
		}
		discovered = slugs
	}

	var known []string
	if p.store != nil && !opts.Refresh {
		slugs, err := p.store.Slugs(ctx)
		if err != nil {
			return nil, fmt.Errorf("ingest: load known slugs: %w", err)
		}
		known = slugs
	}
	pending := scraper.Pending(discovered, known)

	slog.Info("ingest starting",
		"discovered", len(discovered),
		"pending", len(pending),
		"refresh", opts.Refresh,
		"concurrency", opts.Concurrency,
	)
	if opts.OnPending != nil {
		opts.OnPending(len(discovered), len(pending))
	}

	result := scraper.RunBatch(ctx, p.extractor, pending, opts.Concurrency, opts.OnProgress)

	if p.store != nil && len(result.Products) > 0 {
		if err := p.store.Upsert(ctx, result.Products); err != nil {
			return nil, fmt.Errorf("ingest: persist products: %w", err)
		}
		if p.cache != nil {
			p.cache.Purge()
		}
	}

	report := &Report{
		Discovered: len(discovered),
		Pending:    len(pending),
		Products:   result.Products,
		Failures:   result.Failures,
		Duration:   time.Since(start),
	}
	if len(report.Failures) > 0 {
		failed := make([]string, len(report.Failures))
		for i, f := range report.Failures {
			failed[i] = f.Slug
		}
		slog.Warn("some products failed to extract", "count", len(failed), "slugs", failed)
	}
	slog.Info("ingest finished",
		"succeeded", len(report.Products),
		"failed", len(report.Failures),
		"duration", report.Duration,
	)
	return report, nil
}

// Status classifies a finished run.
func (r *Report) Status() string {
	switch {
	case r.Pending == 0 || len(r.Failures) == 0:
		return models.JobCompleted
	case len(r.Failures) == r.Pending:
		return models.JobFailed
	default:
		return models.JobPartial
	}
}
