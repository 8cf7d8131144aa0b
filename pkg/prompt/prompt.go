package prompt

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed defaults/*.md
var defaults embed.FS

// DefaultDir is where user overrides live.
const DefaultDir = ".cvtailor/prompts"

const (
	Initial = "initial.md"
	Edit    = "edit.md"
	Review  = "review.md"
)

// Names lists every template in render order.
var Names = []string{Initial, Edit, Review}

// InitialData feeds the first-draft template.
type InitialData struct {
	Criteria   string
	BaseResume string
	JobPosting string
}

// EditData feeds the revision template.
type EditData struct {
	Criteria    string
	Feedback    string
	BaseResume  string
	JobTitle    string
	CompanyName string
	JobPosting  string
	JobURL      string
	Draft       string
}

// ReviewData feeds the reviewer template.
type ReviewData struct {
	Criteria string
	Draft    string
}

// Set holds the three parsed templates.
type Set struct {
	templates map[string]*template.Template
	sources   map[string]string
}

// Default returns the embedded templates.
func Default() (*Set, error) {
	return Load("")
}

// Load parses templates, preferring files in dir over the embedded defaults.
// An empty dir uses only the defaults.
func Load(dir string) (*Set, error) {
	s := &Set{
		templates: make(map[string]*template.Template, len(Names)),
		sources:   make(map[string]string, len(Names)),
	}
	for _, name := range Names {
		src, err := source(dir, name)
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("error parsing prompt template %s: %w", name, err)
		}
		s.templates[name] = tmpl
		s.sources[name] = src
	}
	return s, nil
}

func source(dir, name string) (string, error) {
	if dir != "" {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(content), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("error reading prompt %s: %w", name, err)
		}
	}
	content, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (s *Set) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates[name].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderInitial renders the first-draft prompt.
func (s *Set) RenderInitial(d InitialData) (string, error) {
	return s.render(Initial, d)
}

// RenderEdit renders the revision prompt.
func (s *Set) RenderEdit(d EditData) (string, error) {
	return s.render(Edit, d)
}

// RenderReview renders the reviewer prompt.
func (s *Set) RenderReview(d ReviewData) (string, error) {
	return s.render(Review, d)
}

// Fingerprint identifies the template sources, for cache keys.
func (s *Set) Fingerprint() string {
	h := sha256.New()
	for _, name := range Names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(s.sources[name]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Init writes any default template missing from dir.
func Init(dir string) error {
	return writeDefaults(dir, false)
}

// Reset overwrites every template in dir with the defaults.
func Reset(dir string) error {
	return writeDefaults(dir, true)
}

func writeDefaults(dir string, overwrite bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range Names {
		path := filepath.Join(dir, name)
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		content, err := defaults.ReadFile("defaults/" + name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}
