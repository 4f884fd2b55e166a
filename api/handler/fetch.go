package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/daltunay/perfumes/ingest"
	"github.com/daltunay/perfumes/models"
	"github.com/gin-gonic/gin"
)

// PostFetch returns a handler for POST /api/v1/fetch-products.
// It starts an ingest job in the background and answers 202 with its id.
// An empty body means defaults.
func PostFetch(jobs *ingest.Jobs, defaultConcurrency int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FetchRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, models.NewAPIError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}
		req.Defaults(defaultConcurrency)

		job, err := jobs.Start(req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, models.FetchResponse{
			ID:     job.ID(),
			Status: models.JobProcessing,
		})
	}
}

// GetFetch returns a handler for GET /api/v1/fetch-products/:id.
func GetFetch(jobs *ingest.Jobs) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := jobs.Get(c.Param("id"))
		if !ok {
			respondError(c, models.NewAPIError(models.ErrCodeJobNotFound, "fetch job not found", nil))
			return
		}
		c.JSON(http.StatusOK, job.Snapshot())
	}
}
