// Package review asks the reviewer model to approve or reject a draft.
package review

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xrsl/cvtailor/pkg/ai"
	"github.com/xrsl/cvtailor/pkg/prompt"
)

// Verdict is Approved, or Rejected with Feedback.
type Verdict struct {
	Approved bool
	Feedback string
	// Raw is the trimmed reviewer response.
	Raw string
}

func (v Verdict) String() string {
	if v.Approved {
		return "approved"
	}
	return "rejected"
}

var rejectedPrefix = regexp.MustCompile(`(?i)^REJECTED[:\s]*`)

// Parse classifies a reviewer response. Text starting with APPROVED (any case)
// approves. Anything else rejects, with the leading REJECTED token and its
// separator removed as feedback, or the whole text if nothing else remains.
func Parse(text string) Verdict {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToUpper(text), "APPROVED") {
		return Verdict{Approved: true, Raw: text}
	}
	feedback := rejectedPrefix.ReplaceAllString(text, "")
	if feedback == "" {
		feedback = text
	}
	return Verdict{Feedback: feedback, Raw: text}
}

// FormatError means the reviewer's response could not be read as text.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("reviewer response format unexpected: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Judge renders the review prompt and calls the reviewer model.
type Judge struct {
	client  ai.Client
	prompts *prompt.Set
}

func NewJudge(client ai.Client, prompts *prompt.Set) *Judge {
	return &Judge{client: client, prompts: prompts}
}

// Review returns the reviewer's verdict on draft.
func (j *Judge) Review(ctx context.Context, criteria, draft string) (Verdict, error) {
	p, err := j.prompts.RenderReview(prompt.ReviewData{Criteria: criteria, Draft: draft})
	if err != nil {
		return Verdict{}, err
	}
	out, err := j.client.GenerateContent(ctx, p)
	if err != nil {
		if errors.Is(err, ai.ErrNonText) {
			return Verdict{}, &FormatError{Err: err}
		}
		return Verdict{}, fmt.Errorf("reviewer: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return Verdict{}, &FormatError{Err: fmt.Errorf("empty response: %w", ai.ErrNonText)}
	}
	return Parse(out), nil
}
