package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeJobNotFound  = "JOB_NOT_FOUND"
	ErrCodeJobRunning   = "JOB_RUNNING"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeStore        = "STORE_FAILURE"
	ErrCodeCatalogWalk  = "CATALOG_WALK_FAILED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrMissingTitle is the cause of an ExtractionError when a detail page has
// no product title block.
var ErrMissingTitle = errors.New("product title not found")

// CatalogWalkError aborts a catalog walk. No partial catalog accompanies it.
type CatalogWalkError struct {
	Page int
	URL  string
	Err  error
}

func (e *CatalogWalkError) Error() string {
	return fmt.Sprintf("catalog walk failed on page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *CatalogWalkError) Unwrap() error {
	return e.Err
}

// ExtractionError is scoped to a single product. Batch processing records it
// against the slug and moves on.
type ExtractionError struct {
	Slug string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Slug, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is the error type handlers map to HTTP responses.
// It supports error wrapping via Unwrap.
type APIError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError.
func NewAPIError(code, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *APIError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
