package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/daltunay/perfumes/models"
	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Counter reports the number of stored products.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when the store cannot be queried.
func Health(st Counter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		n, err := st.Count(c.Request.Context())
		if err != nil {
			slog.Warn("health: count products", "error", err)
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Products: n,
			Version:  Version,
		})
	}
}
