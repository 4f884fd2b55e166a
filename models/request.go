package models

// FetchRequest is the payload for POST /api/v1/fetch-products.
type FetchRequest struct {
	// Refresh re-extracts products that are already stored.
	// Default: false (only newly discovered slugs are fetched).
	Refresh bool `json:"refresh,omitempty"`

	// Concurrency bounds the number of detail pages fetched in parallel.
	// Default: the server's configured concurrency. Max: 16.
	Concurrency int `json:"concurrency,omitempty" binding:"omitempty,min=1,max=16"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *FetchRequest) Defaults(concurrency int) {
	if r.Concurrency == 0 {
		r.Concurrency = concurrency
	}
	if r.Concurrency <= 0 {
		r.Concurrency = 1
	}
}
