package scraper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/daltunay/perfumes/models"
)

// progressEvery is how often, in finished items, batch progress is logged.
const progressEvery = 10

// ProductExtractor extracts one product by slug.
type ProductExtractor interface {
	Extract(ctx context.Context, slug string) (*models.Product, error)
}

// Failure records a slug whose extraction failed.
type Failure struct {
	Slug string
	Err  error
}

// BatchResult is the outcome of RunBatch. Every input slug appears exactly
// once across Products and Failures.
type BatchResult struct {
	Products []*models.Product
	Failures []Failure
}

// ProgressFunc is called after each item with the number finished so far.
type ProgressFunc func(done, total int, err error)

// RunBatch extracts every slug, collecting failures instead of stopping on
// them. With concurrency <= 1 slugs are processed one after another and
// results keep input order; otherwise at most concurrency extractions run at
// once and result order is unspecified.
func RunBatch(ctx context.Context, x ProductExtractor, slugs []string, concurrency int, progress ProgressFunc) *BatchResult {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		mu     sync.Mutex
		result = &BatchResult{Products: make([]*models.Product, 0, len(slugs))}
		done   atomic.Int64
		total  = len(slugs)
	)

	record := func(slug string, p *models.Product, err error) {
		mu.Lock()
		if err != nil {
			result.Failures = append(result.Failures, Failure{Slug: slug, Err: err})
		} else {
			result.Products = append(result.Products, p)
		}
		mu.Unlock()

		n := int(done.Add(1))
		if err != nil {
			slog.Warn("product extraction failed", "slug", slug, "error", err)
		}
		if n%progressEvery == 0 || n == total {
			slog.Info("batch progress", "done", n, "total", total)
		}
		if progress != nil {
			progress(n, total, err)
		}
	}

	if concurrency == 1 {
		for _, slug := range slugs {
			p, err := x.Extract(ctx, slug)
			record(slug, p, err)
		}
		return result
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for _, slug := range slugs {
		sem <- struct{}{}
		wg.Add(1)
		go func(slug string) {
			defer wg.Done()
			defer func() { <-sem }()
			p, err := x.Extract(ctx, slug)
			record(slug, p, err)
		}(slug)
	}
	wg.Wait()
	return result
}

// Pending returns the discovered slugs not in known, first occurrence only,
// in discovery order.
func Pending(discovered, known []string) []string {
	seen := make(map[string]struct{}, len(known)+len(discovered))
	for _, s := range known {
		seen[s] = struct{}{}
	}
	var out []string
	for _, s := range discovered {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
