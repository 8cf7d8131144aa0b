// Package ollama talks to a local Ollama server's /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xrsl/cvtailor/pkg/retry"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llama3:latest"
)

// ErrNoText is returned when the server answers without a text response.
var ErrNoText = errors.New("ollama returned no text")

// Options tunes the HTTP transport.
type Options struct {
	Retry retry.Config
	// Timeout bounds a single request; zero leaves it unbounded.
	Timeout time.Duration
}

type Client struct {
	baseURL string
	model   string
	retry   retry.Config
	http    *http.Client
}

// NewClient returns a client for model at baseURL, defaulting both when empty.
func NewClient(baseURL, model string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		retry:   opts.Retry,
		http:    &http.Client{Timeout: opts.Timeout},
	}
}

// Model returns the model name sent with each request.
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string  `json:"error"`
}

func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", err
	}

	return retry.Do(ctx, c.retry, func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("ollama connection failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return "", retry.Retryable(err)
			}
			return "", err
		}

		var genResp generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if genResp.Error != "" {
			return "", fmt.Errorf("ollama error: %s", genResp.Error)
		}
		if genResp.Response == nil {
			return "", ErrNoText
		}
		return *genResp.Response, nil
	})
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", c.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama at %s returned status %d", c.baseURL, resp.StatusCode)
	}
	return nil
}

func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
