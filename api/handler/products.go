package handler

import (
	"context"
	"net/http"

	"github.com/daltunay/perfumes/cache"
	"github.com/daltunay/perfumes/export"
	"github.com/daltunay/perfumes/models"
	"github.com/gin-gonic/gin"
)

// ProductReader is the read side of the product store.
type ProductReader interface {
	Counter
	Get(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
}

// Products returns a handler for GET /api/v1/products.
//
// Query: field, mode (any|all|exact), match (exact|contains), q (repeated or
// comma-separated). Results are cached per filter until the next ingest.
func Products(st ProductReader, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := bindFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}

		cacheKey := cache.Key(filter.Key())
		if cc != nil {
			if cached, hit := cc.Get(cacheKey); hit {
				c.JSON(http.StatusOK, models.ProductsResponse{
					Success:     true,
					Products:    cached,
					Total:       len(cached),
					CacheStatus: "hit",
				})
				return
			}
		}

		products, err := st.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, models.NewAPIError(models.ErrCodeStore, "list products", err))
			return
		}
		if products == nil {
			products = []*models.Product{}
		}

		resp := models.ProductsResponse{
			Success:  true,
			Products: products,
			Total:    len(products),
		}
		if cc != nil {
			cc.Set(cacheKey, products)
			resp.CacheStatus = "miss"
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Product returns a handler for GET /api/v1/products/:slug.
func Product(st ProductReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := st.Get(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ProductResponse{Success: true, Product: p})
	}
}

// ProductsCSV returns a handler for GET /api/v1/products.csv. It accepts the
// same filter query as Products.
func ProductsCSV(st ProductReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := bindFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}

		products, err := st.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, models.NewAPIError(models.ErrCodeStore, "list products", err))
			return
		}

		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="products.csv"`)
		c.Status(http.StatusOK)
		if err := export.WriteCSV(c.Writer, products); err != nil {
			_ = c.Error(err)
		}
	}
}

func bindFilter(c *gin.Context) (models.ProductFilter, error) {
	var filter models.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		return filter, models.NewAPIError(models.ErrCodeInvalidInput, err.Error(), err)
	}
	filter.Defaults()
	if err := filter.Validate(); err != nil {
		return filter, models.NewAPIError(models.ErrCodeInvalidInput, err.Error(), err)
	}
	return filter, nil
}
