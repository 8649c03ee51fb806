// Package mailchannels is a client for the transactional delivery
// provider's HTTP API.
package mailchannels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lifeafter619/mail-gateway/internal/config"
)

// HTTPDoer executes HTTP requests. Satisfied by *http.Client; tests
// inject failures through it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a delivery provider API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NewClient creates a provider client. No retry wrapper: a transmission
// is submitted at most once and failures surface to the caller.
func NewClient(cfg config.ProviderConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// Send submits one message. Any response status >= 300 is an error;
// the provider's error text is included for diagnostics.
func (c *Client) Send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("provider error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
