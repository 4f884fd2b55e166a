package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/daltunay/perfumes/cache"
	"github.com/daltunay/perfumes/models"
	"github.com/daltunay/perfumes/scraper"
	"github.com/daltunay/perfumes/store"
	"github.com/daltunay/perfumes/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWalker struct {
	slugs []string
	err   error
	calls int
}

func (w *fakeWalker) DiscoverIdentifiers(ctx context.Context) ([]string, error) {
	w.calls++
	return w.slugs, w.err
}

type fakeExtractor struct {
	mu    sync.Mutex
	fail  map[string]bool
	block chan struct{}
	seen  []string
}

func (x *fakeExtractor) Extract(ctx context.Context, slug string) (*models.Product, error) {
	if x.block != nil {
		<-x.block
	}
	x.mu.Lock()
	x.seen = append(x.seen, slug)
	x.mu.Unlock()
	if x.fail[slug] {
		return nil, &models.ExtractionError{Slug: slug, Err: errors.New("boom")}
	}
	return &models.Product{Slug: slug, URL: "https://pellwall.com/products/" + slug, Name: slug}, nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPipeline_SkipsKnownSlugs(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	require.NoError(t, st.Upsert(ctx, []*models.Product{{Slug: "ambroxan", URL: "u", Name: "Ambroxan"}}))

	c := cache.New(8, time.Minute)
	defer c.Stop()
	c.Set("all", nil)

	walker := &fakeWalker{slugs: []string{"ambroxan", "hedione", "hedione", "iso-e-super"}}
	x := &fakeExtractor{fail: map[string]bool{"iso-e-super": true}}

	var discovered, pending int
	report, err := NewPipeline(walker, x, st, c).Run(ctx, RunOptions{
		Concurrency: 1,
		OnPending:   func(d, p int) { discovered, pending = d, p },
	})
	require.NoError(t, err)

	assert.Equal(t, 4, discovered)
	assert.Equal(t, 2, pending)
	assert.Equal(t, []string{"hedione", "iso-e-super"}, x.seen)
	require.Len(t, report.Products, 1)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "iso-e-super", report.Failures[0].Slug)
	assert.Equal(t, models.JobPartial, report.Status())
	assert.Zero(t, report.Products[0].ID, "stored products are not written back")
	assert.True(t, report.Products[0].UpdatedAt.IsZero())

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, c.Len())
}

func TestPipeline_RefreshReextracts(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	require.NoError(t, st.Upsert(ctx, []*models.Product{{Slug: "ambroxan", URL: "u", Name: "Old"}}))

	x := &fakeExtractor{}
	report, err := NewPipeline(&fakeWalker{slugs: []string{"ambroxan"}}, x, st, nil).
		Run(ctx, RunOptions{Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, report.Status())

	got, err := st.Get(ctx, "ambroxan")
	require.NoError(t, err)
	assert.Equal(t, "ambroxan", got.Name)
}

func TestPipeline_GivenSlugsSkipWalk(t *testing.T) {
	walker := &fakeWalker{err: errors.New("should not walk")}
	report, err := NewPipeline(walker, &fakeExtractor{}, nil, nil).
		Run(context.Background(), RunOptions{Slugs: []string{"a", "b"}, Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, walker.calls)
	assert.Len(t, report.Products, 2)
}

func TestPipeline_WalkFailureAborts(t *testing.T) {
	walkErr := &models.CatalogWalkError{Page: 3, URL: "https://pellwall.com?page=3", Err: errors.New("503")}
	x := &fakeExtractor{}
	_, err := NewPipeline(&fakeWalker{err: walkErr}, x, nil, nil).Run(context.Background(), RunOptions{})
	require.ErrorAs(t, err, &walkErr)
	assert.Empty(t, x.seen)
}

func TestReport_Status(t *testing.T) {
	assert.Equal(t, models.JobCompleted, (&Report{}).Status())
	assert.Equal(t, models.JobFailed, (&Report{Pending: 1, Failures: []scraper.Failure{{Slug: "a"}}}).Status())
	assert.Equal(t, models.JobPartial, (&Report{Pending: 2, Failures: []scraper.Failure{{Slug: "a"}}}).Status())
}

func TestJobs_Lifecycle(t *testing.T) {
	x := &fakeExtractor{block: make(chan struct{}), fail: map[string]bool{"b": true}}
	js := NewJobs(NewPipeline(&fakeWalker{slugs: []string{"a", "b", "c"}}, x, openStore(t), nil), nil)
	defer js.Stop()

	job, err := js.Start(models.FetchRequest{Concurrency: 1})
	require.NoError(t, err)
	assert.True(t, js.Running())
	assert.Equal(t, models.JobProcessing, job.Snapshot().Status)

	_, err = js.Start(models.FetchRequest{})
	assert.ErrorIs(t, err, ErrJobRunning)

	close(x.block)
	js.Wait()
	assert.False(t, js.Running())

	got, ok := js.Get(job.ID())
	require.True(t, ok)
	snap := got.Snapshot()
	assert.Equal(t, models.JobPartial, snap.Status)
	assert.Equal(t, 3, snap.Discovered)
	assert.Equal(t, 3, snap.Pending)
	assert.Equal(t, 3, snap.Completed)
	assert.Equal(t, 2, snap.Succeeded)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, "b", snap.Failures[0].Slug)
	assert.NotZero(t, snap.FinishedAt)

	_, ok = js.Get("missing")
	assert.False(t, ok)

	// A new job may start once the previous one finished. Only the failed
	// slug is still pending, and it fails again.
	next, err := js.Start(models.FetchRequest{})
	require.NoError(t, err)
	js.Wait()
	assert.Equal(t, 1, next.Snapshot().Pending)
	assert.Equal(t, models.JobFailed, next.Snapshot().Status)
}

func TestJobs_WalkFailure(t *testing.T) {
	walkErr := &models.CatalogWalkError{Page: 1, URL: "u", Err: errors.New("blocked")}
	js := NewJobs(NewPipeline(&fakeWalker{err: walkErr}, &fakeExtractor{}, nil, nil), nil)
	defer js.Stop()

	job, err := js.Start(models.FetchRequest{})
	require.NoError(t, err)
	js.Wait()

	snap := job.Snapshot()
	assert.Equal(t, models.JobFailed, snap.Status)
	require.NotNil(t, snap.Error)
	assert.Equal(t, models.ErrCodeCatalogWalk, snap.Error.Code)
}

func TestJobs_StartAfterTerminalSnapshot(t *testing.T) {
	js := NewJobs(NewPipeline(&fakeWalker{slugs: []string{"a"}}, &fakeExtractor{}, nil, nil), nil)
	defer js.Stop()

	for i := 0; i < 20; i++ {
		job, err := js.Start(models.FetchRequest{Refresh: true})
		require.NoError(t, err, "run %d", i)
		require.Eventually(t, func() bool {
			return job.Snapshot().Status != models.JobProcessing
		}, time.Second, time.Millisecond)
		// A client that has seen the terminal status may start the next run.
		assert.False(t, js.Running())
	}
	js.Wait()
}

func TestJobs_StopWaitsForWebhook(t *testing.T) {
	var delivered atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		delivered.Add(1)
	}))
	defer srv.Close()

	js := NewJobs(NewPipeline(&fakeWalker{slugs: []string{"a"}}, &fakeExtractor{}, nil, nil), webhook.NewSender())
	_, err := js.Start(models.FetchRequest{WebhookURL: srv.URL})
	require.NoError(t, err)

	js.Wait()
	js.Stop()
	assert.Equal(t, int32(1), delivered.Load())
}
