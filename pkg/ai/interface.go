package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xrsl/cvtailor/pkg/claude"
	"github.com/xrsl/cvtailor/pkg/gemini"
	"github.com/xrsl/cvtailor/pkg/ollama"
	"github.com/xrsl/cvtailor/pkg/retry"
)

// Client is the common interface for AI providers
type Client interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close()
}

// ErrNonText reports a model response that carried no plain-text payload.
// Backends wrap their own sentinels so callers can match on this one.
var ErrNonText = errors.New("response is not plain text")

// Options carries transport settings shared by every backend.
type Options struct {
	OllamaURL         string
	Retries           int
	RequestsPerSecond float64
	RequestTimeout    time.Duration
}

// DefaultAgent is used when neither flag nor config names one.
const DefaultAgent = "ollama:" + ollama.DefaultModel

// NewClient creates an AI client based on agent prefix
func NewClient(agent string, opts Options) (Client, error) {
	retryCfg := retry.DefaultConfig().WithRetries(opts.Retries)
	switch {
	case agent == "ollama" || strings.HasPrefix(agent, "ollama:"):
		return &textClient{inner: ollama.NewClient(opts.OllamaURL, subAgent(agent), ollama.Options{
			Retry:   retryCfg,
			Timeout: opts.RequestTimeout,
		})}, nil
	case agent == "claude-code" || strings.HasPrefix(agent, "claude-code:"):
		if !IsClaudeCLIAvailable() {
			return nil, fmt.Errorf("claude CLI not found in PATH")
		}
		return NewClaudeCLI(subAgent(agent)), nil
	case agent == "gemini-cli" || strings.HasPrefix(agent, "gemini-cli:"):
		if !IsGeminiCLIAvailable() {
			return nil, fmt.Errorf("gemini CLI not found in PATH")
		}
		return NewGeminiCLI(subAgent(agent)), nil
	case strings.HasPrefix(agent, "gemini-"):
		c, err := gemini.NewClient(agent, gemini.Options{
			Retry:             retryCfg,
			RequestsPerSecond: opts.RequestsPerSecond,
			Timeout:           opts.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &textClient{inner: c}, nil
	case strings.HasPrefix(agent, "claude-"):
		c, err := claude.NewClient(agent, claude.Options{
			Retry:             retryCfg,
			RequestsPerSecond: opts.RequestsPerSecond,
			Timeout:           opts.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &textClient{inner: c}, nil
	default:
		return nil, fmt.Errorf("unknown agent: %s (use ollama[:model], claude-code, gemini-cli, gemini-*, or claude-*)", agent)
	}
}

// subAgent parses "claude-code:sonnet-4.5" → "sonnet-4.5" and
// "ollama:llama3:latest" → "llama3:latest".
func subAgent(agent string) string {
	if idx := strings.Index(agent, ":"); idx != -1 {
		return agent[idx+1:]
	}
	return ""
}

// IsAgentSupported checks if an agent is supported by any provider
func IsAgentSupported(agent string) bool {
	switch {
	case agent == "ollama" || strings.HasPrefix(agent, "ollama:"):
		return true
	case agent == "claude-code" || strings.HasPrefix(agent, "claude-code:"):
		return IsClaudeCLIAvailable()
	case agent == "gemini-cli" || strings.HasPrefix(agent, "gemini-cli:"):
		return IsGeminiCLIAvailable()
	case strings.HasPrefix(agent, "gemini-"):
		return gemini.IsAgentSupported(agent)
	case strings.HasPrefix(agent, "claude-"):
		return claude.IsAgentSupported(agent)
	default:
		return false
	}
}

// IsAgentCLI returns true if the agent is a CLI agent (claude-code, gemini-cli)
func IsAgentCLI(agent string) bool {
	return agent == "claude-code" || strings.HasPrefix(agent, "claude-code:") ||
		agent == "gemini-cli" || strings.HasPrefix(agent, "gemini-cli:")
}

// IsAgentOllama reports whether agent is served by a local Ollama instance.
func IsAgentOllama(agent string) bool {
	return agent == "ollama" || strings.HasPrefix(agent, "ollama:")
}

// SupportedAgents returns all supported agents (CLI + API)
func SupportedAgents() []string {
	agents := []string{DefaultAgent}
	if IsClaudeCLIAvailable() {
		agents = append(agents, "claude-code")
	}
	if IsGeminiCLIAvailable() {
		agents = append(agents, "gemini-cli")
	}
	agents = append(agents, gemini.SupportedAgents...)
	agents = append(agents, claude.SupportedAgents...)
	return agents
}

// textClient maps backend-specific non-text sentinels onto ErrNonText.
type textClient struct {
	inner interface {
		GenerateContent(ctx context.Context, prompt string) (string, error)
		Close()
	}
}

func (c *textClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	out, err := c.inner.GenerateContent(ctx, prompt)
	if err != nil {
		if errors.Is(err, claude.ErrNoText) || errors.Is(err, gemini.ErrNoText) || errors.Is(err, ollama.ErrNoText) {
			return "", fmt.Errorf("%w: %w", ErrNonText, err)
		}
		return "", err
	}
	return out, nil
}

func (c *textClient) Close() {
	c.inner.Close()
}
