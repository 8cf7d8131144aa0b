package claude

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/xrsl/cvtailor/pkg/retry"
)

const DefaultAgent = "claude-sonnet-4"

// maxTokens leaves room for a full resume plus cover letter.
const maxTokens = 8192

// ErrNoText is returned when a message carries no text block.
var ErrNoText = errors.New("no text content in response")

var SupportedAgents = []string{
	"claude-sonnet-4",
	"claude-sonnet-4-5",
	"claude-opus-4",
	"claude-opus-4-5",
	"claude-haiku-4-5",
}

// Map friendly agent names to Anthropic model IDs
var modelMapping = map[string]string{
	"claude-sonnet-4":   "claude-sonnet-4-20250514",
	"claude-sonnet-4-5": "claude-sonnet-4-5-20250929",
	"claude-opus-4":     "claude-opus-4-20250514",
	"claude-opus-4-5":   "claude-opus-4-5-20251101",
	"claude-haiku-4-5":  "claude-haiku-4-5-20251001",
}

func IsAgentSupported(agent string) bool {
	return slices.Contains(SupportedAgents, agent)
}

// Options configures retries, pacing and timeouts for API calls.
type Options struct {
	Retry             retry.Config
	RequestsPerSecond float64
	Timeout           time.Duration
}

type Client struct {
	client  anthropic.Client
	model   string
	retry   retry.Config
	limiter *retry.RateLimiter
}

func NewClient(model string, opts Options) (*Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	if model == "" {
		model = DefaultAgent
	}

	// Map agent name to Anthropic model ID
	modelID, ok := modelMapping[model]
	if !ok {
		modelID = model // fallback to raw value if not in mapping
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// retries are handled by retry.Do so api_retries=0 really means one attempt
		option.WithMaxRetries(0),
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	return &Client{
		client:  anthropic.NewClient(reqOpts...),
		model:   modelID,
		retry:   opts.Retry,
		limiter: retry.NewRateLimiter(opts.RequestsPerSecond),
	}, nil
}

// isRetryableError checks if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// Retry on rate limits, overloaded, and temporary network issues
	return strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "529") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "timeout")
}

// formatAPIError converts API errors to user-friendly messages
func formatAPIError(err error, model string) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication_error"):
		return fmt.Errorf("claude API error: invalid API key. Check ANTHROPIC_API_KEY environment variable")
	case strings.Contains(errStr, "403") || strings.Contains(errStr, "permission_denied"):
		return fmt.Errorf("claude API error: key does not have access to model %q. Check your Anthropic account permissions", model)
	case strings.Contains(errStr, "404") || strings.Contains(errStr, "not_found"):
		return fmt.Errorf("claude API error: model %q not found. Verify the model name is correct", model)
	case strings.Contains(errStr, "rate_limit"):
		return fmt.Errorf("claude API error: rate limit exceeded for model %q. Please wait and try again", model)
	case strings.Contains(errStr, "overloaded") || strings.Contains(errStr, "529"):
		return fmt.Errorf("claude API error: service overloaded. Please try again later")
	default:
		return fmt.Errorf("claude API error: %w", err)
	}
}

func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	return retry.Do(ctx, c.retry, func() (string, error) {
		message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			if isRetryableError(err) {
				return "", retry.Retryable(formatAPIError(err, c.model))
			}
			return "", formatAPIError(err, c.model)
		}
		return firstText(message.Content)
	})
}

// firstText returns the first text block of a message.
func firstText(blocks []anthropic.ContentBlockUnion) (string, error) {
	for _, block := range blocks {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", ErrNoText
}

func (c *Client) Close() {
	// No cleanup needed for HTTP client
}
