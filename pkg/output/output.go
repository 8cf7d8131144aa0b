// Package output writes tailored documents to per-company directories.
package output

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/xrsl/cvtailor/pkg/docx"
	"github.com/xrsl/cvtailor/pkg/document"
	"github.com/xrsl/cvtailor/pkg/utils"
)

// Output formats.
const (
	FormatTxt  = "txt"
	FormatDocx = "docx"
)

// File names inside a company directory.
const (
	ResumeName      = "resume"
	CoverLetterName = "cover_letter"
	RawName         = "raw_output.txt"
)

// DefaultDir is the root directory for generated documents.
const DefaultDir = "generated"

// Word characters are ASCII only; whitespace covers the Unicode space
// separators as well.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`)

// SanitizeCompany replaces every character that is not an ASCII letter,
// digit, underscore or whitespace with an underscore. Characters outside
// the BMP become two underscores, one per UTF-16 code unit, so existing
// output directories keep their names.
func SanitizeCompany(name string) string {
	return unsafeChars.ReplaceAllStringFunc(name, func(m string) string {
		n := 0
		for _, r := range m {
			n += utf16.RuneLen(r)
		}
		return strings.Repeat("_", n)
	})
}

// ParseFormats splits a comma separated list such as "txt,docx".
func ParseFormats(s string) ([]string, error) {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if f != FormatTxt && f != FormatDocx {
			return nil, fmt.Errorf("unknown output format %q (use txt or docx)", f)
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return []string{FormatTxt}, nil
	}
	return formats, nil
}

// Writer writes documents under Dir.
type Writer struct {
	Dir     string
	Formats []string
}

// New returns a writer for dir. Empty formats mean plain text only.
func New(dir string, formats []string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	if len(formats) == 0 {
		formats = []string{FormatTxt}
	}
	return &Writer{Dir: dir, Formats: formats}
}

// CompanyDir returns the directory documents for company are written to.
func (w *Writer) CompanyDir(company string) string {
	return filepath.Join(w.Dir, SanitizeCompany(company))
}

// WriteDocuments writes the resume and cover letter in every configured
// format and returns the paths written.
func (w *Writer) WriteDocuments(company string, p document.Parsed) ([]string, error) {
	dir := w.CompanyDir(company)
	var written []string

	for _, f := range w.Formats {
		for _, doc := range []struct {
			name string
			text string
		}{
			{ResumeName, p.Resume},
			{CoverLetterName, p.CoverLetter},
		} {
			path := filepath.Join(dir, doc.name+"."+f)
			if err := writeFormat(path, f, doc.text); err != nil {
				return written, fmt.Errorf("writing %s: %w", path, err)
			}
			written = append(written, path)
		}
	}
	return written, nil
}

// WriteRaw writes the unparsed draft to raw_output.txt.
func (w *Writer) WriteRaw(company, draft string) (string, error) {
	path := filepath.Join(w.CompanyDir(company), RawName)
	if err := utils.WriteFile(path, draft); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func writeFormat(path, format, text string) error {
	switch format {
	case FormatDocx:
		data, err := docx.Render(text)
		if err != nil {
			return err
		}
		return utils.WriteBytes(path, data)
	default:
		return utils.WriteFile(path, text)
	}
}
