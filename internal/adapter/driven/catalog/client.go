// Package catalog implements the ModelCatalog port against the supported
// models JSON endpoint.
package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

// APIKeyHeader carries the active credential on every catalog request.
const APIKeyHeader = "X-API-Key"

// SupportedModelsPath is appended to the configured API base.
const SupportedModelsPath = "/api/supported-models"

// Compile-time interface satisfaction check.
var _ driven.ModelCatalog = (*Client)(nil)

// Client implements driven.ModelCatalog with a single GET request per fetch.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Client for the given API base URL. The underlying
// http.Client has no timeout: a fetch resolves whenever the transport does.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTPClient(&http.Client{}, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchModels requests the supported models with credential in the
// X-API-Key header. A non-2xx response yields a *driven.RejectedError without
// reading the body. Transport and decoding errors are returned unwrapped.
// Elements lacking model_name decode with an empty Name.
func (c *Client) FetchModels(ctx context.Context, credential string) ([]model.SupportedModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+SupportedModelsPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(APIKeyHeader, credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &driven.RejectedError{StatusCode: resp.StatusCode}
	}

	var models []model.SupportedModel
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, err
	}
	if models == nil {
		models = []model.SupportedModel{}
	}

	return models, nil
}
