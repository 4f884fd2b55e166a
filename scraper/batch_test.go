package scraper

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/daltunay/perfumes/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	fail     map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, slug string) (*models.Product, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[slug] {
		return nil, &models.ExtractionError{Slug: slug, Err: errors.New("boom")}
	}
	return &models.Product{Slug: slug, Name: slug}, nil
}

func slugsOf(products []*models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Slug
	}
	return out
}

func TestRunBatch_Sequential(t *testing.T) {
	x := &fakeExtractor{fail: map[string]bool{"b": true}}

	var mu sync.Mutex
	var calls []int
	res := RunBatch(context.Background(), x, []string{"a", "b", "c"}, 1, func(done, total int, err error) {
		mu.Lock()
		calls = append(calls, done)
		mu.Unlock()
		assert.Equal(t, 3, total)
	})

	assert.Equal(t, []string{"a", "c"}, slugsOf(res.Products))
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "b", res.Failures[0].Slug)
	assert.ErrorContains(t, res.Failures[0].Err, "boom")
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, int32(1), x.peak.Load())
}

func TestRunBatch_Concurrent(t *testing.T) {
	slugs := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	x := &fakeExtractor{
		fail:  map[string]bool{"c": true, "k": true},
		delay: 10 * time.Millisecond,
	}

	res := RunBatch(context.Background(), x, slugs, 4, nil)

	got := slugsOf(res.Products)
	for _, f := range res.Failures {
		got = append(got, f.Slug)
	}
	sort.Strings(got)
	assert.Equal(t, slugs, got)
	assert.Len(t, res.Failures, 2)
	assert.LessOrEqual(t, x.peak.Load(), int32(4))
}

func TestRunBatch_Empty(t *testing.T) {
	res := RunBatch(context.Background(), &fakeExtractor{}, nil, 3, nil)
	assert.Empty(t, res.Products)
	assert.Empty(t, res.Failures)
}
