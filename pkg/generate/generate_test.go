package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xrsl/cvtailor/pkg/ai"
	"github.com/xrsl/cvtailor/pkg/ai/aitest"
	"github.com/xrsl/cvtailor/pkg/prompt"
)

func newGenerator(t *testing.T, client ai.Client) *Generator {
	t.Helper()
	prompts, err := prompt.Default()
	if err != nil {
		t.Fatalf("prompt.Default() error: %v", err)
	}
	return New(client, prompts)
}

func TestInitialTrimsResponse(t *testing.T) {
	client := aitest.New("\n  **Resume:**\nA\n**Cover Letter:**\nB  \n")
	g := newGenerator(t, client)

	out, err := g.Initial(context.Background(), prompt.InitialData{
		Criteria:   "be brief",
		BaseResume: "base",
		JobPosting: "posting",
	})
	if err != nil {
		t.Fatalf("Initial error: %v", err)
	}
	if out != "**Resume:**\nA\n**Cover Letter:**\nB" {
		t.Errorf("Initial = %q", out)
	}
	if p := client.Prompts()[0]; !strings.Contains(p, "be brief") || !strings.Contains(p, "posting") {
		t.Errorf("prompt missing inputs: %q", p)
	}
}

func TestEditPassesFeedback(t *testing.T) {
	client := aitest.New("revised")
	g := newGenerator(t, client)

	out, err := g.Edit(context.Background(), prompt.EditData{Feedback: "missing dates", Draft: "old draft"})
	if err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	if out != "revised" {
		t.Errorf("Edit = %q", out)
	}
	p := client.Prompts()[0]
	if !strings.Contains(p, "missing dates") || !strings.Contains(p, "old draft") {
		t.Errorf("edit prompt missing feedback or draft: %q", p)
	}
}

func TestFormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply aitest.Reply
	}{
		{"non-text payload", aitest.Reply{Err: ai.ErrNonText}},
		{"empty text", aitest.Reply{Text: "   \n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(t, aitest.Script(tt.reply))
			_, err := g.Edit(context.Background(), prompt.EditData{})

			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FormatError, got %v", err)
			}
			if fe.Mode != ModeEdit {
				t.Errorf("Mode = %q, want %q", fe.Mode, ModeEdit)
			}
			if !errors.Is(err, ai.ErrNonText) {
				t.Error("FormatError should unwrap to ai.ErrNonText")
			}
		})
	}
}

func TestTransportErrorIsNotFormatError(t *testing.T) {
	g := newGenerator(t, aitest.Script(aitest.Reply{Err: errors.New("connection refused")}))
	_, err := g.Initial(context.Background(), prompt.InitialData{})
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		t.Errorf("transport error reported as format error: %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error lost cause: %v", err)
	}
}
