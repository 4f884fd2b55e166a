package models

// Fetch job statuses.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed" // every pending product was extracted
	JobPartial    = "partial"   // some products failed to extract
	JobFailed     = "failed"    // the catalog walk failed or every product failed
)

// FetchResponse is the immediate response for POST /api/v1/fetch-products.
type FetchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// FetchFailure records one product that could not be extracted.
type FetchFailure struct {
	Slug  string `json:"slug"`
	Error string `json:"error"`
}

// FetchStatusResponse is the response for GET /api/v1/fetch-products/:id.
type FetchStatusResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Discovered int            `json:"discovered"`
	Pending    int            `json:"pending"`
	Completed  int            `json:"completed"`
	Succeeded  int            `json:"succeeded"`
	Failures   []FetchFailure `json:"failures,omitempty"`
	Error      *ErrorDetail   `json:"error,omitempty"`
	CreatedAt  int64          `json:"created_at"`            // unix timestamp
	FinishedAt int64          `json:"finished_at,omitempty"` // unix timestamp
}
