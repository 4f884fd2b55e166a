package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "dispatcher").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string

	// Timeout bounds this fetch. Zero means no per-fetch deadline beyond ctx.
	Timeout time.Duration
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}

// withTimeout derives a context bounded by req.Timeout when one is set.
func withTimeout(ctx context.Context, req *FetchRequest) (context.Context, context.CancelFunc) {
	if req.Timeout > 0 {
		return context.WithTimeout(ctx, req.Timeout)
	}
	return context.WithCancel(ctx)
}

// StatusError is an upstream HTTP error status seen by an engine.
type StatusError struct {
	Engine string
	Code   int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d for %s", e.Engine, e.Code, e.URL)
}

// Definitive reports whether err is an answer every engine would get: the
// page is gone (404, 410). Bot challenges and server errors are not.
func Definitive(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusNotFound || se.Code == http.StatusGone
}
