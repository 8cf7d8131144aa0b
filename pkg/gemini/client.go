package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/xrsl/cvtailor/pkg/retry"
)

const DefaultAgent = "gemini-2.5-flash"

// ErrNoText is returned when a candidate carries no text parts.
var ErrNoText = errors.New("no text content generated")

var SupportedAgents = []string{
	"gemini-3-flash-preview",
	"gemini-3-pro-preview",
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash",
}

func IsAgentSupported(agent string) bool {
	return slices.Contains(SupportedAgents, agent)
}

// Options tunes request pacing and retries.
type Options struct {
	Retry             retry.Config
	RequestsPerSecond float64
	// Timeout bounds each call; zero means no limit.
	Timeout time.Duration
}

type Client struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	retry   retry.Config
	limiter *retry.RateLimiter
	timeout time.Duration
}

func NewClient(model string, opts Options) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	if model == "" {
		model = DefaultAgent
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	m := client.GenerativeModel(model)
	m.ResponseMIMEType = "text/plain"

	return &Client{
		client:  client,
		model:   m,
		retry:   opts.Retry,
		limiter: retry.NewRateLimiter(opts.RequestsPerSecond),
		timeout: opts.Timeout,
	}, nil
}

// isRetryableError reports quota and availability errors.
func isRetryableError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "UNAVAILABLE")
}

func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	return retry.Do(ctx, c.retry, func() (string, error) {
		resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			err = fmt.Errorf("gemini API error: %w", err)
			if isRetryableError(err) {
				return "", retry.Retryable(err)
			}
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", ErrNoText
		}
		return joinText(resp.Candidates[0].Content.Parts)
	})
}

// joinText concatenates the text parts of a candidate, ignoring others.
func joinText(parts []genai.Part) (string, error) {
	var sb strings.Builder
	found := false
	for _, part := range parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
			found = true
		}
	}
	if !found {
		return "", ErrNoText
	}
	return sb.String(), nil
}

func (c *Client) Close() {
	_ = c.client.Close()
}
