package models

// ProductsResponse is the response for GET /api/v1/products.
type ProductsResponse struct {
	Success     bool         `json:"success"`
	Products    []*Product   `json:"products"`
	Total       int          `json:"total"`
	CacheStatus string       `json:"cache_status,omitempty"` // "hit" or "miss"
	Error       *ErrorDetail `json:"error,omitempty"`
}

// ProductResponse is the response for GET /api/v1/products/:slug.
type ProductResponse struct {
	Success bool         `json:"success"`
	Product *Product     `json:"product,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"` // "healthy" or "degraded"
	Uptime   string `json:"uptime"`
	Products int    `json:"products"`
	Version  string `json:"version"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
