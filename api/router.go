package api

import (
	"time"

	"github.com/daltunay/perfumes/api/handler"
	"github.com/daltunay/perfumes/api/middleware"
	"github.com/daltunay/perfumes/cache"
	"github.com/daltunay/perfumes/config"
	"github.com/daltunay/perfumes/ingest"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so probes and scrapers always work.
func NewRouter(cfg *config.Config, st handler.ProductReader, cc *cache.Cache, jobs *ingest.Jobs, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(st, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Catalog
	protected.GET("/products", handler.Products(st, cc))
	protected.GET("/products.csv", handler.ProductsCSV(st))
	protected.GET("/products/:slug", handler.Product(st))

	// Ingest
	protected.POST("/fetch-products", handler.PostFetch(jobs, cfg.Fetch.Concurrency))
	protected.GET("/fetch-products/:id", handler.GetFetch(jobs))

	return r
}
