// Package docx writes plain text as a minimal Word document.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const (
	documentStart = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentEnd = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="709" w:footer="709" w:gutter="0"/></w:sectPr></w:body></w:document>`
)

// Render returns text as DOCX bytes.
func Render(text string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, text); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes text as a DOCX archive to w. Each line becomes a paragraph.
// A line wrapped in ** is written bold without the markers.
func Write(w io.Writer, text string) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", DocumentXML(text)},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("docx: create %s: %w", p.name, err)
		}
		if _, err := f.Write(p.body); err != nil {
			return fmt.Errorf("docx: write %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

// DocumentXML returns the word/document.xml part for text.
func DocumentXML(text string) []byte {
	var b bytes.Buffer
	b.WriteString(documentStart)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		writeParagraph(&b, line)
	}

	b.WriteString(documentEnd)
	return b.Bytes()
}

func writeParagraph(b *bytes.Buffer, line string) {
	b.WriteString("<w:p>")
	if line == "" {
		b.WriteString("</w:p>")
		return
	}

	bold := false
	if t := strings.TrimSpace(line); len(t) > 4 && strings.HasPrefix(t, "**") && strings.HasSuffix(t, "**") {
		line = strings.TrimSuffix(strings.TrimPrefix(t, "**"), "**")
		bold = true
	}

	b.WriteString("<w:r>")
	if bold {
		b.WriteString("<w:rPr><w:b/></w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(b, []byte(line))
	b.WriteString("</w:t></w:r></w:p>")
}
