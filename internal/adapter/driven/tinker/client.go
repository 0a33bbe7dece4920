// Package tinker implements the TinkerService port against the upstream
// training service HTTP API.
package tinker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/tinkerstudio/internal/domain/model"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

const (
	apiKeyHeader             = "X-API-Key"
	capabilitiesPath         = "/api/v1/get_server_capabilities"
	createTrainingClientPath = "/api/v1/create_training_client"
)

// Compile-time interface satisfaction check.
var _ driven.TinkerService = (*Client)(nil)

// Client implements the driven.TinkerService port.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Client for the upstream at baseURL. Each request is
// bounded by timeout; a non-positive timeout disables it.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: max(timeout, 0)}, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type capabilitiesResponse struct {
	SupportedModels []model.UpstreamModel `json:"supported_models"`
}

type createTrainingClientRequest struct {
	BaseModel string `json:"base_model"`
}

// SupportedModels fetches the server capabilities and returns the supported
// model entries as reported, including entries with a null name.
func (c *Client) SupportedModels(ctx context.Context, apiKey string) ([]model.UpstreamModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+capabilitiesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("creating capabilities request: %w", err)
	}

	resp, err := c.do(req, apiKey)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "get_server_capabilities"); err != nil {
		return nil, err
	}

	var out capabilitiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding server capabilities: %w", err)
	}

	if out.SupportedModels == nil {
		out.SupportedModels = []model.UpstreamModel{}
	}

	return out.SupportedModels, nil
}

// CreateTrainingClient asks the upstream to create a LoRA training client
// for baseModel.
func (c *Client) CreateTrainingClient(ctx context.Context, apiKey, baseModel string) error {
	body, err := json.Marshal(createTrainingClientRequest{BaseModel: baseModel})
	if err != nil {
		return fmt.Errorf("encoding training client request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createTrainingClientPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating training client request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, apiKey)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "create_training_client"); err != nil {
		return err
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(req *http.Request, apiKey string) (*http.Response, error) {
	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, operation string) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	return &driven.UpstreamStatusError{Operation: operation, StatusCode: resp.StatusCode}
}
