// Package pipeline runs the tailoring loop over a list of jobs.
//
// Jobs are processed one at a time. A failure in one job is logged with its
// job number and the run moves on to the next job; only cancellation of the
// run context stops the run early.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xrsl/cvtailor/pkg/cache"
	"github.com/xrsl/cvtailor/pkg/document"
	"github.com/xrsl/cvtailor/pkg/jobs"
	clog "github.com/xrsl/cvtailor/pkg/log"
	"github.com/xrsl/cvtailor/pkg/loop"
	"github.com/xrsl/cvtailor/pkg/output"
	"github.com/xrsl/cvtailor/pkg/prompt"
)

// Controller runs the loop for one job. *loop.Controller implements it.
type Controller interface {
	Run(ctx context.Context, job jobs.Job) (loop.Outcome, error)
}

// Status is the result of processing one job.
type Status string

const (
	StatusWritten Status = "written"
	StatusRaw     Status = "raw"
	StatusFailed  Status = "failed"
	StatusDryRun  Status = "dry_run"
)

// Result describes one processed job.
type Result struct {
	Job    jobs.ID
	Status Status
	State  string
	Rounds int
	Cached bool
	Paths  []string
	Err    error
}

// Summary counts results for a run.
type Summary struct {
	RunID   string
	Written int
	Raw     int
	Failed  int
	Cached  int
	Results []Result
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case StatusWritten:
		s.Written++
	case StatusRaw:
		s.Raw++
	case StatusFailed:
		s.Failed++
	}
	if r.Cached {
		s.Cached++
	}
}

// Runner processes jobs. Build it with New.
type Runner struct {
	ctrl    Controller
	out     *output.Writer
	ref     loop.Reference
	fetcher *jobs.Fetcher
	logger  *slog.Logger
	now     func() time.Time

	store   *cache.Store
	salt    string
	refresh bool

	dryRun  bool
	prompts *prompt.Set
	dryOut  io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithFetcher enables fetching postings that only carry a URL.
func WithFetcher(f *jobs.Fetcher) Option {
	return func(r *Runner) { r.fetcher = f }
}

// WithCache reuses final drafts from store. salt identifies everything
// besides the job and reference text that affects a draft, such as the
// model agents and prompt templates. With refresh set, cached entries are
// ignored but still overwritten.
func WithCache(store *cache.Store, salt string, refresh bool) Option {
	return func(r *Runner) {
		r.store = store
		r.salt = salt
		r.refresh = refresh
	}
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithDryRun renders the initial prompt of each job to w instead of calling
// any model.
func WithDryRun(prompts *prompt.Set, w io.Writer) Option {
	return func(r *Runner) {
		r.dryRun = true
		r.prompts = prompts
		r.dryOut = w
	}
}

func New(ctrl Controller, out *output.Writer, ref loop.Reference, opts ...Option) *Runner {
	r := &Runner{
		ctrl: ctrl,
		out:  out,
		ref:  ref,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = clog.Logger()
	}
	return r
}

// Run processes every job in order. The returned error is non-nil only when
// ctx is cancelled; per-job failures are reported in the Summary.
func (r *Runner) Run(ctx context.Context, list []jobs.Job) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	base := r.logger.With("run_id", sum.RunID)
	base.Info("starting run", "jobs", len(list))
	runStart := r.now()

	for _, job := range list {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		logger := base.With("job", string(job.Number))
		start := r.now()
		logger.Info("processing job", "company", job.Company, "title", job.Title)

		res := r.process(clog.NewContext(ctx, logger), logger, job)
		if res.Err != nil && ctx.Err() != nil {
			return sum, ctx.Err()
		}
		if res.Err != nil {
			logger.Error("job failed", "err", res.Err)
		}
		sum.add(res)

		end := r.now()
		logger.Info("job finished",
			"status", string(res.Status),
			"elapsed", FormatElapsed(end.Sub(start)),
			"run_elapsed", FormatElapsed(end.Sub(runStart)),
			"clock", end.Format("15:04:05"))
	}

	base.Info("run complete",
		"written", sum.Written,
		"raw", sum.Raw,
		"failed", sum.Failed,
		"cached", sum.Cached)
	return sum, nil
}

func (r *Runner) process(ctx context.Context, logger *slog.Logger, job jobs.Job) Result {
	res := Result{Job: job.Number, Status: StatusFailed}

	if err := job.Validate(); err != nil {
		res.Err = err
		return res
	}
	job, err := r.fill(ctx, job)
	if err != nil {
		res.Err = err
		return res
	}

	if r.dryRun {
		if err := r.render(job); err != nil {
			res.Err = err
			return res
		}
		res.Status = StatusDryRun
		return res
	}

	draft, err := r.draft(ctx, logger, job, &res)
	if err != nil {
		res.Err = err
		return res
	}

	parsed, err := document.Parse(draft)
	if errors.Is(err, document.ErrExtraction) {
		path, werr := r.out.WriteRaw(job.Company, draft)
		if werr != nil {
			res.Err = werr
			return res
		}
		logger.Warn("could not extract resume and cover letter, wrote raw output", "path", path)
		res.Status = StatusRaw
		res.Paths = []string{path}
		return res
	}

	paths, err := r.out.WriteDocuments(job.Company, parsed)
	res.Paths = paths
	if err != nil {
		res.Err = err
		return res
	}
	logger.Info("documents written", "dir", r.out.CompanyDir(job.Company))
	res.Status = StatusWritten
	return res
}

func (r *Runner) fill(ctx context.Context, job jobs.Job) (jobs.Job, error) {
	if !job.NeedsFetch() {
		return job, nil
	}
	if r.fetcher == nil {
		return job, fmt.Errorf("job posting has no content and fetching is disabled")
	}
	return r.fetcher.Fill(ctx, job)
}

func (r *Runner) render(job jobs.Job) error {
	p, err := r.prompts.RenderInitial(prompt.InitialData{
		Criteria:   r.ref.Criteria,
		BaseResume: r.ref.BaseResume,
		JobPosting: job.Content,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.dryOut, "===== job %s: %s (%s) =====\n%s\n\n", job.Number, job.Title, job.Company, p)
	return err
}

// draft returns the final loop draft for job, from the cache when possible.
func (r *Runner) draft(ctx context.Context, logger *slog.Logger, job jobs.Job, res *Result) (string, error) {
	var key string
	if r.store != nil {
		key = cache.Key(r.salt, r.ref.Criteria, r.ref.BaseResume,
			job.Title, job.Company, job.URL, job.Content)
		if !r.refresh {
			e, err := r.store.Read(key)
			switch {
			case err == nil:
				logger.Info("using cached draft", "state", e.State, "rounds", e.Rounds)
				res.Cached = true
				res.State = e.State
				res.Rounds = e.Rounds
				return e.Draft, nil
			case !errors.Is(err, cache.ErrMiss):
				logger.Warn("ignoring unreadable cache entry", "err", err)
			}
		}
	}

	outcome, err := r.ctrl.Run(ctx, job)
	res.State = outcome.State.String()
	res.Rounds = outcome.Rounds
	if err != nil {
		return "", err
	}

	if r.store != nil {
		err := r.store.Write(key, cache.Entry{
			Job:     string(job.Number),
			Company: job.Company,
			State:   res.State,
			Rounds:  res.Rounds,
			Draft:   string(outcome.Draft),
		})
		if err != nil {
			logger.Warn("failed to write cache", "err", err)
		}
	}
	return string(outcome.Draft), nil
}

// FormatElapsed formats d as HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
