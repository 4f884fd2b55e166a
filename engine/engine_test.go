package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEngine_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Contains(t, r.Header.Get("User-Agent"), "Chrome")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, `<html><head><title> Ambroxan </title></head><body>ok</body></html>`)
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := NewHTTPEngine()

	t.Run("html page", func(t *testing.T) {
		res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/ok"})
		require.NoError(t, err)
		assert.Equal(t, "Ambroxan", res.Title)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "http", res.EngineName)
		assert.Contains(t, res.HTML, "<body>ok</body>")
	})

	t.Run("error status", func(t *testing.T) {
		_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/missing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.Code)
		assert.True(t, Definitive(err))
	})

	t.Run("non html", func(t *testing.T) {
		_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-html")
	})
}

func TestHTTPEngine_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHTTPEngine().Fetch(context.Background(), &FetchRequest{
		URL:     srv.URL,
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeEngine struct {
	name  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{HTML: "<html></html>", EngineName: f.name}, nil
}

func TestDispatcher_EscalatesOnFailure(t *testing.T) {
	fast := &fakeEngine{name: "http", err: errors.New("blocked")}
	slow := &fakeEngine{name: "rod"}
	memory := NewDomainMemory(time.Hour)
	defer memory.Stop()

	d := NewDispatcher([]Engine{fast, slow}, []time.Duration{0, 10 * time.Millisecond}, memory)

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://pellwall.com/products/x"})
	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Equal(t, "rod", memory.Get("pellwall.com"))

	// The remembered engine is tried first, alone.
	_, err = d.Fetch(context.Background(), &FetchRequest{URL: "https://pellwall.com/products/y"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), fast.calls.Load())
	assert.Equal(t, int32(2), slow.calls.Load())
}

func TestDispatcher_FirstSuccessWins(t *testing.T) {
	fast := &fakeEngine{name: "http"}
	slow := &fakeEngine{name: "rod"}

	d := NewDispatcher([]Engine{fast, slow}, []time.Duration{0, time.Second}, nil)

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, int32(0), slow.calls.Load())
}

func TestDispatcher_AllFail(t *testing.T) {
	d := NewDispatcher([]Engine{
		&fakeEngine{name: "http", err: errors.New("boom")},
		&fakeEngine{name: "rod", err: errors.New("boom")},
	}, nil, nil)

	_, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDispatcher_EscalatesAsSoonAsLighterEngineFails(t *testing.T) {
	fast := &fakeEngine{name: "http", err: &StatusError{Engine: "http", Code: http.StatusForbidden}}
	slow := &fakeEngine{name: "rod"}

	d := NewDispatcher([]Engine{fast, slow}, []time.Duration{0, time.Hour}, nil)

	start := time.Now()
	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://pellwall.com/products/x"})
	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDispatcher_DefinitiveAnswerEndsRace(t *testing.T) {
	gone := &StatusError{Engine: "http", Code: http.StatusNotFound, URL: "https://pellwall.com/products/retired"}
	fast := &fakeEngine{name: "http", err: gone}
	slow := &fakeEngine{name: "rod"}

	d := NewDispatcher([]Engine{fast, slow}, []time.Duration{0, 50 * time.Millisecond}, nil)

	_, err := d.Fetch(context.Background(), &FetchRequest{URL: gone.URL})
	require.ErrorIs(t, err, gone)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), slow.calls.Load())
}

func TestDispatcher_RememberedEngineDefinitiveAnswer(t *testing.T) {
	memory := NewDomainMemory(time.Hour)
	defer memory.Stop()
	memory.Set("pellwall.com", "rod")

	fast := &fakeEngine{name: "http"}
	slow := &fakeEngine{name: "rod", err: &StatusError{Engine: "rod", Code: http.StatusGone}}
	d := NewDispatcher([]Engine{fast, slow}, nil, memory)

	_, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://pellwall.com/products/x"})
	require.Error(t, err)
	assert.True(t, Definitive(err))
	assert.Equal(t, int32(0), fast.calls.Load())
	assert.Equal(t, "rod", memory.Get("pellwall.com"))
}

func TestDispatcher_ContextCancelled(t *testing.T) {
	d := NewDispatcher([]Engine{
		&fakeEngine{name: "http", delay: time.Hour},
		&fakeEngine{name: "rod", delay: time.Hour},
	}, []time.Duration{0, time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := d.Fetch(ctx, &FetchRequest{URL: "https://pellwall.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefinitive(t *testing.T) {
	assert.True(t, Definitive(fmt.Errorf("wrapped: %w", &StatusError{Code: http.StatusGone})))
	assert.False(t, Definitive(&StatusError{Code: http.StatusServiceUnavailable}))
	assert.False(t, Definitive(errors.New("HTTP 404")))
	assert.False(t, Definitive(nil))
}

func TestDomainMemory_Expiry(t *testing.T) {
	dm := NewDomainMemory(20 * time.Millisecond)
	defer dm.Stop()

	dm.Set("pellwall.com", "http")
	assert.Equal(t, "http", dm.Get("pellwall.com"))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, "", dm.Get("pellwall.com"))

	var nilMemory *DomainMemory
	nilMemory.Set("a", "b")
	assert.Equal(t, "", nilMemory.Get("a"))
}
