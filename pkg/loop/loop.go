// Package loop runs the generate/review/edit cycle for a single job.
//
// The generator writes a first draft; the reviewer approves it or rejects it
// with feedback; a rejected draft is revised with that feedback. After cap
// revisions the last revision is accepted whether or not it was reviewed.
package loop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xrsl/cvtailor/pkg/jobs"
	clog "github.com/xrsl/cvtailor/pkg/log"
	"github.com/xrsl/cvtailor/pkg/prompt"
	"github.com/xrsl/cvtailor/pkg/review"
)

// DefaultCap is the number of edit rounds before a draft is accepted as is.
const DefaultCap = 2

// State is a controller state.
type State int

const (
	Generating State = iota
	Reviewing
	Editing
	Approved
	CapReached
)

func (s State) String() string {
	switch s {
	case Generating:
		return "generating"
	case Reviewing:
		return "reviewing"
	case Editing:
		return "editing"
	case Approved:
		return "approved"
	case CapReached:
		return "cap_reached"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the controller stops in s.
func (s State) Terminal() bool {
	return s == Approved || s == CapReached
}

// Draft is the current resume and cover letter text for a job.
type Draft string

// Reference is the text shared by every job in a run.
type Reference struct {
	Criteria   string
	BaseResume string
}

// Drafter writes and revises drafts. *generate.Generator implements it.
type Drafter interface {
	Initial(ctx context.Context, d prompt.InitialData) (string, error)
	Edit(ctx context.Context, d prompt.EditData) (string, error)
}

// Reviewer judges drafts. *review.Judge implements it.
type Reviewer interface {
	Review(ctx context.Context, criteria, draft string) (review.Verdict, error)
}

// Outcome is the result of running the loop for one job.
type Outcome struct {
	Draft Draft
	State State
	// Rounds counts review rounds; it never exceeds the cap.
	Rounds          int
	GenerationCalls int
	ReviewCalls     int
}

// Controller drives the loop. It holds no per-job state and may be reused.
type Controller struct {
	drafter  Drafter
	reviewer Reviewer
	ref      Reference
	cap      int
	logger   *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithCap sets the number of edit rounds. Negative values mean zero.
func WithCap(n int) Option {
	return func(c *Controller) {
		if n < 0 {
			n = 0
		}
		c.cap = n
	}
}

// WithLogger sets the logger used for progress messages. Without it the
// logger carried by the Run context is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

func New(d Drafter, r Reviewer, ref Reference, opts ...Option) *Controller {
	c := &Controller{
		drafter:  d,
		reviewer: r,
		ref:      ref,
		cap:      DefaultCap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cap returns the configured number of edit rounds.
func (c *Controller) Cap() int {
	return c.cap
}

// Run processes job until it is approved or the cap is reached. On error the
// returned Outcome reports the state in which the failure happened.
func (c *Controller) Run(ctx context.Context, job jobs.Job) (Outcome, error) {
	logger := c.logger
	if logger == nil {
		logger = clog.FromContext(ctx)
	}

	var (
		out      = Outcome{State: Generating}
		round    int
		feedback string
	)

	for !out.State.Terminal() {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		switch out.State {
		case Generating:
			text, err := c.drafter.Initial(ctx, prompt.InitialData{
				Criteria:   c.ref.Criteria,
				BaseResume: c.ref.BaseResume,
				JobPosting: job.Content,
			})
			out.GenerationCalls++
			if err != nil {
				return out, err
			}
			out.Draft = Draft(text)
			if c.cap == 0 {
				out.State = CapReached
				continue
			}
			round = 1
			out.State = Reviewing

		case Reviewing:
			logger.Info("reviewer evaluating", "iteration", round)
			verdict, err := c.reviewer.Review(ctx, c.ref.Criteria, string(out.Draft))
			out.ReviewCalls++
			out.Rounds = round
			if err != nil {
				return out, fmt.Errorf("round %d: %w", round, err)
			}
			logger.Debug("reviewer says", "iteration", round, "verdict", verdict.String(), "text", verdict.Raw)
			if verdict.Approved {
				out.State = Approved
				continue
			}
			feedback = verdict.Feedback
			out.State = Editing

		case Editing:
			text, err := c.drafter.Edit(ctx, prompt.EditData{
				Criteria:    c.ref.Criteria,
				Feedback:    feedback,
				BaseResume:  c.ref.BaseResume,
				JobTitle:    job.Title,
				CompanyName: job.Company,
				JobPosting:  job.Content,
				JobURL:      job.URL,
				Draft:       string(out.Draft),
			})
			out.GenerationCalls++
			if err != nil {
				return out, fmt.Errorf("round %d: %w", round, err)
			}
			out.Draft = Draft(text)
			if round >= c.cap {
				out.State = CapReached
				continue
			}
			round++
			out.State = Reviewing
		}
	}

	if out.State == Approved {
		logger.Info("reviewer approved the documents", "rounds", out.Rounds)
	} else {
		logger.Info("edit cap reached, keeping last revision", "rounds", out.Rounds, "cap", c.cap)
	}
	return out, nil
}
