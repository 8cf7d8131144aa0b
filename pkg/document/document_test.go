package document

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		draft  string
		resume string
		letter string
	}{
		{
			name:   "minimal",
			draft:  "**Resume:**\nAAA\n**Cover Letter:**\nBBB",
			resume: "AAA",
			letter: "BBB",
		},
		{
			name:   "preamble and crlf",
			draft:  "Here you go.\r\n\r\n**Resume:**\r\nJane Doe\r\nEngineer\r\n\r\n**Cover Letter:**\r\nDear team,\r\nHi.\r\n",
			resume: "Jane Doe\r\nEngineer",
			letter: "Dear team,\r\nHi.",
		},
		{
			name:   "multiple blank lines after heading",
			draft:  "**Resume:**\n\n\n- item\n**Cover Letter:**\n\nDear Acme",
			resume: "- item",
			letter: "Dear Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.draft)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if got.Resume != tt.resume {
				t.Errorf("Resume = %q, want %q", got.Resume, tt.resume)
			}
			if got.CoverLetter != tt.letter {
				t.Errorf("CoverLetter = %q, want %q", got.CoverLetter, tt.letter)
			}
		})
	}
}

func TestParseExtractionFailure(t *testing.T) {
	drafts := map[string]string{
		"missing cover letter": "**Resume:**\nAAA\n",
		"missing resume":       "**Cover Letter:**\nBBB",
		"wrong order":          "**Cover Letter:**\nBBB\n**Resume:**\nAAA",
		"plain headings":       "Resume:\nAAA\nCover Letter:\nBBB",
		"heading not at start": "see **Resume:**\nAAA\n**Cover Letter:**\nBBB",
		"empty":                "",
	}

	for name, draft := range drafts {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(draft); !errors.Is(err, ErrExtraction) {
				t.Errorf("expected ErrExtraction, got %v", err)
			}
		})
	}
}
