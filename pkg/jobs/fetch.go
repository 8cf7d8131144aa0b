package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// UserAgent is sent with posting fetches.
var UserAgent = "cvtailor"

// Fetcher downloads posting pages for jobs that only carry a URL.
type Fetcher struct {
	HTTP *http.Client
}

// NewFetcher returns a Fetcher with a 30s timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// Fill returns j with Content populated from its URL when it is empty.
func (f *Fetcher) Fill(ctx context.Context, j Job) (Job, error) {
	if !j.NeedsFetch() {
		return j, nil
	}
	text, err := f.Fetch(ctx, j.URL)
	if err != nil {
		return j, err
	}
	j.Content = text
	return j, nil
}

// Fetch downloads url and returns its readable text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch failed: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}

	text, err := CleanHTML(string(body))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("no text found at %s", url)
	}
	return text, nil
}

// CleanHTML strips page chrome and collapses blank lines.
func CleanHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer, header").Remove()

	var cleaned []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n"), nil
}
