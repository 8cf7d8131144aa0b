package gemini

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestIsAgentSupported(t *testing.T) {
	supported := []string{
		"gemini-3-flash-preview",
		"gemini-3-pro-preview",
		"gemini-2.5-flash",
		"gemini-2.5-pro",
	}

	for _, agent := range supported {
		if !IsAgentSupported(agent) {
			t.Errorf("agent %q should be supported", agent)
		}
	}

	unsupported := []string{
		"gemini-1.5-pro",
		"gpt-4",
		"invalid",
	}

	for _, agent := range unsupported {
		if IsAgentSupported(agent) {
			t.Errorf("agent %q should not be supported", agent)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := NewClient("", Options{}); err == nil {
		t.Error("expected error without GEMINI_API_KEY")
	}
}

func TestJoinText(t *testing.T) {
	text, err := joinText([]genai.Part{genai.Text("REJECTED: "), genai.Text("too long")})
	if err != nil {
		t.Fatalf("joinText error: %v", err)
	}
	if text != "REJECTED: too long" {
		t.Errorf("joinText = %q", text)
	}

	_, err = joinText([]genai.Part{genai.Blob{MIMEType: "image/png", Data: []byte{1}}})
	if !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText for non-text parts, got %v", err)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"googleapi: Error 429: RESOURCE_EXHAUSTED", true},
		{"rpc error: code = Unavailable desc = 503", true},
		{"googleapi: Error 400: API key not valid", false},
	}
	for _, tt := range tests {
		if got := isRetryableError(errors.New(tt.err)); got != tt.want {
			t.Errorf("isRetryableError(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
