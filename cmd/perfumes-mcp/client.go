package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/daltunay/perfumes/models"
)

// apiClient talks to the perfumes HTTP API.
type apiClient struct {
	baseURL      string
	apiKey       string
	http         *http.Client
	pollInterval time.Duration
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL:      baseURL,
		apiKey:       apiKey,
		http:         &http.Client{Timeout: 60 * time.Second},
		pollInterval: 2 * time.Second,
	}
}

// do sends a request and decodes the JSON response into out. Error bodies
// are decoded as models.ErrorResponse.
func (c *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp models.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
			return fmt.Errorf("[%s] %s", errResp.Error.Code, errResp.Error.Message)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *apiClient) listProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductsResponse, error) {
	q := url.Values{}
	if filter.Field != "" {
		q.Set("field", filter.Field)
	}
	if filter.Mode != "" {
		q.Set("mode", filter.Mode)
	}
	if filter.Match != "" {
		q.Set("match", filter.Match)
	}
	for _, v := range filter.Values {
		q.Add("q", v)
	}

	path := "/api/v1/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp models.ProductsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) getProduct(ctx context.Context, slug string) (*models.Product, error) {
	var resp models.ProductResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/"+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, fmt.Errorf("product %q missing from response", slug)
	}
	return resp.Product, nil
}

// fetchProducts starts an ingest job and polls until it is no longer
// processing.
func (c *apiClient) fetchProducts(ctx context.Context, req models.FetchRequest) (*models.FetchStatusResponse, error) {
	var started models.FetchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/fetch-products", req, &started); err != nil {
		return nil, err
	}
	if started.ID == "" {
		return nil, fmt.Errorf("fetch job creation failed")
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var status models.FetchStatusResponse
			if err := c.do(ctx, http.MethodGet, "/api/v1/fetch-products/"+started.ID, nil, &status); err != nil {
				return nil, err
			}
			if status.Status != models.JobProcessing {
				return &status, nil
			}
		}
	}
}
