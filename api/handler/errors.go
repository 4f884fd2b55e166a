package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/daltunay/perfumes/ingest"
	"github.com/daltunay/perfumes/models"
	"github.com/daltunay/perfumes/store"
	"github.com/gin-gonic/gin"
)

// respondError maps err to an APIError and writes it with the matching
// status code.
func respondError(c *gin.Context, err error) {
	var apiErr *models.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, store.ErrNotFound):
		apiErr = models.NewAPIError(models.ErrCodeNotFound, "product not found", err)
	case errors.Is(err, ingest.ErrJobRunning):
		apiErr = models.NewAPIError(models.ErrCodeJobRunning, err.Error(), err)
	default:
		apiErr = models.NewAPIError(models.ErrCodeInternal, err.Error(), err)
	}

	status := mapErrorToStatus(apiErr)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, models.ErrorResponse{Success: false, Error: apiErr.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.APIError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNotFound, models.ErrCodeJobNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeJobRunning:
		return http.StatusConflict // 409
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeStore:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
