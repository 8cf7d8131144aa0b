package ai

import (
	"context"
	"fmt"
	"os/exec"
)

// ClaudeCLI implements Client using the claude CLI
type ClaudeCLI struct {
	model string // e.g., "sonnet-4.5", "opus-4"
}

// NewClaudeCLI creates a Claude CLI client
func NewClaudeCLI(model string) *ClaudeCLI {
	return &ClaudeCLI{model: model}
}

// IsClaudeCLIAvailable checks if claude CLI is installed
func IsClaudeCLIAvailable() bool {
	_, err := exec.LookPath("claude")
	return err == nil
}

func (c *ClaudeCLI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := []string{"-p", prompt, "--output-format", "text"}
	if c.model != "" {
		args = append(args, "--model", "claude-"+c.model)
	}
	return runCLI(ctx, "claude", args)
}

func (c *ClaudeCLI) Close() {
	// No cleanup needed
}

// runCLI executes a headless agent CLI and returns its stdout.
func runCLI(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s failed: %w: %s", name, err, exitErr.Stderr)
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	if len(output) == 0 {
		return "", fmt.Errorf("%s: %w", name, ErrNonText)
	}
	return string(output), nil
}
