// Package generate produces resume and cover letter drafts with the generator model.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xrsl/cvtailor/pkg/ai"
	"github.com/xrsl/cvtailor/pkg/prompt"
)

// Mode says which prompt produced a draft.
type Mode string

const (
	ModeInitial Mode = "initial"
	ModeEdit    Mode = "edit"
)

// FormatError means the generator's response could not be read as text.
// It is fatal for the job being processed.
type FormatError struct {
	Mode Mode
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("generator (%s) response format unexpected: %v", e.Mode, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Generator renders prompts and calls the generator model.
type Generator struct {
	client  ai.Client
	prompts *prompt.Set
}

func New(client ai.Client, prompts *prompt.Set) *Generator {
	return &Generator{client: client, prompts: prompts}
}

// Initial writes the first draft for a job.
func (g *Generator) Initial(ctx context.Context, d prompt.InitialData) (string, error) {
	p, err := g.prompts.RenderInitial(d)
	if err != nil {
		return "", err
	}
	return g.call(ctx, ModeInitial, p)
}

// Edit revises the current draft using reviewer feedback.
func (g *Generator) Edit(ctx context.Context, d prompt.EditData) (string, error) {
	p, err := g.prompts.RenderEdit(d)
	if err != nil {
		return "", err
	}
	return g.call(ctx, ModeEdit, p)
}

func (g *Generator) call(ctx context.Context, mode Mode, p string) (string, error) {
	out, err := g.client.GenerateContent(ctx, p)
	if err != nil {
		if errors.Is(err, ai.ErrNonText) {
			return "", &FormatError{Mode: mode, Err: err}
		}
		return "", fmt.Errorf("generator (%s): %w", mode, err)
	}
	return Text(mode, out)
}

// Text trims a raw response and rejects an empty one.
func Text(mode Mode, raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", &FormatError{Mode: mode, Err: fmt.Errorf("empty response: %w", ai.ErrNonText)}
	}
	return text, nil
}
