package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	data := []byte(`[
		{"job_number": "1", "job_title": "SRE", "job_posting_company": "Insight Global",
		 "job_posting_url": "https://example.com/1", "job_posting_content": "Run things."},
		{"job_number": 2, "job_title": "Dev", "job_posting_company": "Acme",
		 "job_posting_url": "https://example.com/2"}
	]`)

	list, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
	if list[0].Number != "1" || list[1].Number != "2" {
		t.Errorf("job numbers = %q, %q", list[0].Number, list[1].Number)
	}
	if list[0].NeedsFetch() {
		t.Error("job with content should not need a fetch")
	}
	if !list[1].NeedsFetch() {
		t.Error("job without content should need a fetch")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `nope`},
		{"object not array", `{"job_number": "1"}`},
		{"bad job number", `[{"job_number": true, "job_posting_company": "A", "job_posting_content": "x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseKeepsInvalidJobs(t *testing.T) {
	list, err := Parse([]byte(`[{"job_number": "1", "job_posting_content": "x"}, {"job_number": "2", "job_posting_company": "A"}]`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		job     Job
		wantErr string
	}{
		{"content", Job{Company: "A", Content: "x"}, ""},
		{"url only", Job{Company: "A", URL: "https://example.com"}, ""},
		{"missing company", Job{Content: "x"}, "job_posting_company"},
		{"blank company", Job{Company: "  ", Content: "x"}, "job_posting_company"},
		{"no content or url", Job{Company: "A"}, "job_posting_content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_inputs.json")
	if err := os.WriteFile(path, []byte(`[{"job_number":"9","job_posting_company":"A","job_posting_content":"x"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(list) != 1 || list[0].Number != "9" {
		t.Errorf("unexpected jobs: %+v", list)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFilter(t *testing.T) {
	list := []Job{{Number: "1"}, {Number: "2"}, {Number: "3"}}

	if got := Filter(list, nil); len(got) != 3 {
		t.Errorf("Filter(nil) kept %d jobs", len(got))
	}
	got := Filter(list, []string{"3", "1"})
	if len(got) != 2 || got[0].Number != "1" || got[1].Number != "3" {
		t.Errorf("Filter kept %+v", got)
	}
}

func TestCleanHTML(t *testing.T) {
	html := `<html><head><style>p{}</style><script>var x;</script></head>
<body><nav>Menu</nav><h1>Senior Engineer</h1>
<p>  Build   things. </p>

<footer>Copyright</footer></body></html>`

	text, err := CleanHTML(html)
	if err != nil {
		t.Fatalf("CleanHTML error: %v", err)
	}
	for _, unwanted := range []string{"Menu", "Copyright", "var x", "p{}"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("cleaned text still contains %q: %q", unwanted, text)
		}
	}
	if !strings.Contains(text, "Senior Engineer") || !strings.Contains(text, "Build   things.") {
		t.Errorf("cleaned text lost content: %q", text)
	}
	if strings.Contains(text, "\n\n") {
		t.Errorf("blank lines not collapsed: %q", text)
	}
}

func TestFetcherFill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><body><p>We need a Go developer.</p></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher()
	ctx := context.Background()

	filled, err := f.Fill(ctx, Job{Number: "1", Company: "A", URL: srv.URL + "/job"})
	if err != nil {
		t.Fatalf("Fill error: %v", err)
	}
	if filled.Content != "We need a Go developer." {
		t.Errorf("Content = %q", filled.Content)
	}

	untouched, err := f.Fill(ctx, Job{Number: "2", Company: "A", URL: "http://invalid.invalid", Content: "inline"})
	if err != nil || untouched.Content != "inline" {
		t.Errorf("Fill should not fetch jobs with content: %q, %v", untouched.Content, err)
	}

	if _, err := f.Fill(ctx, Job{Number: "3", Company: "A", URL: srv.URL + "/missing"}); err == nil {
		t.Error("expected error for 404")
	}
}
