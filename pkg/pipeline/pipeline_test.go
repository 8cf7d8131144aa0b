package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrsl/cvtailor/pkg/ai/aitest"
	"github.com/xrsl/cvtailor/pkg/cache"
	"github.com/xrsl/cvtailor/pkg/generate"
	"github.com/xrsl/cvtailor/pkg/jobs"
	clog "github.com/xrsl/cvtailor/pkg/log"
	"github.com/xrsl/cvtailor/pkg/loop"
	"github.com/xrsl/cvtailor/pkg/output"
	"github.com/xrsl/cvtailor/pkg/prompt"
	"github.com/xrsl/cvtailor/pkg/review"
)

const goodDraft = "**Resume:**\nJane Doe\n**Cover Letter:**\nDear team"

var threeJobs = []jobs.Job{
	{Number: "1", Company: "Acme", Title: "Engineer", Content: "posting one"},
	{Number: "2", Company: "Globex", Title: "Analyst", Content: "posting two"},
	{Number: "3", Company: "AT&T", Title: "SRE", Content: "posting three"},
}

type harness struct {
	gen, rev *aitest.Client
	dir      string
	logs     *bytes.Buffer
}

func newRunner(t *testing.T, h *harness, opts ...Option) *Runner {
	t.Helper()
	prompts, err := prompt.Default()
	require.NoError(t, err)

	h.dir = t.TempDir()
	h.logs = &bytes.Buffer{}
	clog.SetOutput(h.logs)
	t.Cleanup(func() { clog.SetOutput(os.Stderr) })

	ctrl := loop.New(generate.New(h.gen, prompts), review.NewJudge(h.rev, prompts), loop.Reference{})
	return New(ctrl, output.New(h.dir, []string{output.FormatTxt}), loop.Reference{}, opts...)
}

func TestFailingJobDoesNotStopRun(t *testing.T) {
	gen := &aitest.Client{Respond: func(p string) (string, error) {
		if strings.Contains(p, "posting two") {
			return "", errors.New("connection refused")
		}
		return goodDraft, nil
	}}
	h := &harness{gen: gen, rev: aitest.New("APPROVED")}
	r := newRunner(t, h)

	sum, err := r.Run(context.Background(), threeJobs)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Written)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Results, 3)
	assert.Equal(t, StatusFailed, sum.Results[1].Status)
	assert.ErrorContains(t, sum.Results[1].Err, "connection refused")

	assert.FileExists(t, filepath.Join(h.dir, "Acme", "resume.txt"))
	assert.FileExists(t, filepath.Join(h.dir, "AT_T", "cover_letter.txt"))
	assert.NoDirExists(t, filepath.Join(h.dir, "Globex"))

	logs := h.logs.String()
	assert.Contains(t, logs, "job failed")
	assert.Contains(t, logs, "job=2")
}

func TestInvalidJobDoesNotStopRun(t *testing.T) {
	h := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r := newRunner(t, h)

	list := []jobs.Job{
		threeJobs[0],
		{Number: "2", Title: "Analyst"},
		threeJobs[2],
	}
	sum, err := r.Run(context.Background(), list)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Written)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Results, 3)
	assert.Equal(t, StatusFailed, sum.Results[1].Status)
	assert.ErrorContains(t, sum.Results[1].Err, "job_posting_company")
	assert.Equal(t, 2, h.gen.Calls(), "invalid job should not reach the generator")

	assert.FileExists(t, filepath.Join(h.dir, "Acme", "resume.txt"))
	assert.FileExists(t, filepath.Join(h.dir, "AT_T", "resume.txt"))
}

func TestApprovedDraftWrittenUnchanged(t *testing.T) {
	h := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r := newRunner(t, h)

	sum, err := r.Run(context.Background(), threeJobs[:1])
	require.NoError(t, err)

	assert.Equal(t, 1, h.gen.Calls())
	assert.Equal(t, 1, h.rev.Calls())
	assert.Equal(t, "approved", sum.Results[0].State)

	resume, err := os.ReadFile(filepath.Join(h.dir, "Acme", "resume.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", string(resume))
	letter, err := os.ReadFile(filepath.Join(h.dir, "Acme", "cover_letter.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Dear team", string(letter))
}

func TestExtractionFailureWritesRaw(t *testing.T) {
	h := &harness{gen: aitest.New("no headings here"), rev: aitest.New("APPROVED")}
	r := newRunner(t, h)

	sum, err := r.Run(context.Background(), threeJobs[:1])
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Raw)
	raw, err := os.ReadFile(filepath.Join(h.dir, "Acme", output.RawName))
	require.NoError(t, err)
	assert.Equal(t, "no headings here", string(raw))
	assert.NoFileExists(t, filepath.Join(h.dir, "Acme", "resume.txt"))
}

func TestCapReachedDraftIsWritten(t *testing.T) {
	h := &harness{
		gen: aitest.New("draft one", "draft two", goodDraft),
		rev: aitest.New("REJECTED: more detail"),
	}
	r := newRunner(t, h)

	sum, err := r.Run(context.Background(), threeJobs[:1])
	require.NoError(t, err)

	assert.Equal(t, 3, h.gen.Calls())
	assert.Equal(t, 2, h.rev.Calls())
	assert.Equal(t, "cap_reached", sum.Results[0].State)
	assert.Equal(t, StatusWritten, sum.Results[0].Status)
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &aitest.Client{Respond: func(string) (string, error) {
		cancel()
		return "", context.Canceled
	}}
	h := &harness{gen: gen, rev: aitest.New("APPROVED")}
	r := newRunner(t, h)

	sum, err := r.Run(ctx, threeJobs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sum.Results)
	assert.Equal(t, 1, gen.Calls())
}

func TestCacheReusesDraft(t *testing.T) {
	store := cache.New(t.TempDir())

	h := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r := newRunner(t, h, WithCache(store, "ollama:llama3", false))
	_, err := r.Run(context.Background(), threeJobs[:1])
	require.NoError(t, err)
	require.Equal(t, 1, h.gen.Calls())

	h2 := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r2 := newRunner(t, h2, WithCache(store, "ollama:llama3", false))
	sum, err := r2.Run(context.Background(), threeJobs[:1])
	require.NoError(t, err)

	assert.Zero(t, h2.gen.Calls())
	assert.Equal(t, 1, sum.Cached)
	assert.FileExists(t, filepath.Join(h2.dir, "Acme", "resume.txt"))

	h3 := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r3 := newRunner(t, h3, WithCache(store, "ollama:llama3", true))
	sum, err = r3.Run(context.Background(), threeJobs[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, h3.gen.Calls(), "refresh should bypass the cache")
	assert.Zero(t, sum.Cached)
}

func TestDryRun(t *testing.T) {
	prompts, err := prompt.Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	h := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r := newRunner(t, h, WithDryRun(prompts, &buf))

	sum, err := r.Run(context.Background(), threeJobs)
	require.NoError(t, err)

	assert.Zero(t, h.gen.Calls())
	assert.Zero(t, h.rev.Calls())
	assert.Len(t, sum.Results, 3)
	assert.Contains(t, buf.String(), "posting two")
	assert.Contains(t, buf.String(), "===== job 3")
}

func TestFetchesPostingWithoutContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><main>Fetched posting text</main></body></html>"))
	}))
	defer srv.Close()

	h := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r := newRunner(t, h, WithFetcher(jobs.NewFetcher()))

	job := jobs.Job{Number: "9", Company: "Initech", URL: srv.URL}
	sum, err := r.Run(context.Background(), []jobs.Job{job})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Written)
	assert.Contains(t, h.gen.Prompts()[0], "Fetched posting text")
}

func TestMissingContentWithoutFetcherFails(t *testing.T) {
	h := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r := newRunner(t, h)

	sum, err := r.Run(context.Background(), []jobs.Job{{Number: "4", Company: "X", URL: "http://example.invalid"}})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Zero(t, h.gen.Calls())
}

func TestJobFinishedLogsElapsedTimes(t *testing.T) {
	h := &harness{gen: aitest.New(goodDraft), rev: aitest.New("APPROVED")}
	r := newRunner(t, h)

	clock := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	_, err := r.Run(context.Background(), threeJobs[:2])
	require.NoError(t, err)

	logs := h.logs.String()
	assert.Contains(t, logs, "elapsed=00:01:00 run_elapsed=00:02:00")
	assert.Contains(t, logs, "elapsed=00:01:00 run_elapsed=00:04:00")
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{1500 * time.Millisecond, "00:00:02"},
		{61 * time.Second, "00:01:01"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
		{-time.Second, "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatElapsed(tt.d), tt.d.String())
	}
}
