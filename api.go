package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient talks to the backend collaborator: the login endpoint that mints
// authorization claims from a fresh ID token, and the subscription endpoint.
// Calls are single-shot; resilience against claim propagation lag is the
// orchestrator's settle delay, not retries here.
type APIClient struct {
	endpoints  APIEndpoints
	httpClient *http.Client
	logger     Logger
}

func NewAPIClient(endpoints APIEndpoints) *APIClient {
	return &APIClient{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     defLogger{},
	}
}

func (c *APIClient) WithHTTPClient(client *http.Client) *APIClient {
	if client != nil {
		c.httpClient = client
	}
	return c
}

func (c *APIClient) WithLogger(logger Logger) *APIClient {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Login exchanges a fresh ID token for server-minted claims. The response
// body is ignored; the refreshed claims arrive on the next token re-read.
func (c *APIClient) Login(ctx context.Context, token string) error {
	_, err := c.post(ctx, c.endpoints.Login, map[string]any{"token": token})
	return err
}

// Subscription fetches the caller's subscription record.
func (c *APIClient) Subscription(ctx context.Context, token string) (any, error) {
	body, err := c.post(ctx, c.endpoints.Subscription, map[string]any{"token": token})
	if err != nil {
		return nil, err
	}
	return subField(body)
}

// CancelSubscription posts the cancel flag alongside the token.
func (c *APIClient) CancelSubscription(ctx context.Context, token string) (any, error) {
	body, err := c.post(ctx, c.endpoints.Subscription, map[string]any{
		"token":  token,
		"cancel": true,
	})
	if err != nil {
		return nil, err
	}
	return subField(body)
}

func (c *APIClient) post(ctx context.Context, endpoint string, payload map[string]any) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("api: endpoint not configured")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("api: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api: %s returned status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	return body, nil
}

func subField(body []byte) (any, error) {
	var payload struct {
		Sub any `json:"sub"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("api: decode response: %w", err)
	}
	return payload.Sub, nil
}
