// Package document splits a final draft into its resume and cover letter.
package document

import (
	"errors"
	"regexp"
	"strings"
)

// ErrExtraction means the draft lacks the section headings, or has them out
// of order. Callers keep the raw draft instead.
var ErrExtraction = errors.New("draft is missing the Resume or Cover Letter section")

var (
	resumeSection = regexp.MustCompile(`(?m)^\*\*Resume:\*\*[\r\n]+([\s\S]*?)^\*\*Cover Letter:\*\*`)
	letterSection = regexp.MustCompile(`(?m)^\*\*Cover Letter:\*\*[\r\n]+([\s\S]*)`)
)

// Parsed holds the two extracted documents.
type Parsed struct {
	Resume      string
	CoverLetter string
}

// Parse extracts the text under the "**Resume:**" heading up to the
// "**Cover Letter:**" heading, and the cover letter from there to the end.
func Parse(draft string) (Parsed, error) {
	resume := resumeSection.FindStringSubmatch(draft)
	letter := letterSection.FindStringSubmatch(draft)
	if resume == nil || letter == nil {
		return Parsed{}, ErrExtraction
	}
	return Parsed{
		Resume:      strings.TrimSpace(resume[1]),
		CoverLetter: strings.TrimSpace(letter[1]),
	}, nil
}
