package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvtailor/pkg/ai"
	"github.com/xrsl/cvtailor/pkg/cache"
	"github.com/xrsl/cvtailor/pkg/config"
	"github.com/xrsl/cvtailor/pkg/generate"
	"github.com/xrsl/cvtailor/pkg/jobs"
	clog "github.com/xrsl/cvtailor/pkg/log"
	"github.com/xrsl/cvtailor/pkg/loop"
	"github.com/xrsl/cvtailor/pkg/output"
	"github.com/xrsl/cvtailor/pkg/pipeline"
	"github.com/xrsl/cvtailor/pkg/prompt"
	"github.com/xrsl/cvtailor/pkg/review"
	"github.com/xrsl/cvtailor/pkg/signal"
	"github.com/xrsl/cvtailor/pkg/style"
	"github.com/xrsl/cvtailor/pkg/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tailor documents for every job in the job list",
	Long: `Generate, review and revise a resume and cover letter for each job.

Each job gets one initial draft. The reviewer either approves it or rejects
it with feedback, and a rejected draft is revised. After --max-edit-rounds
revisions the last revision is kept without another review.

A job that fails is logged and skipped; the remaining jobs still run.

Agents:
  ollama[:model]        local Ollama (default ollama:llama3:latest)
  claude-code[:model]   claude CLI
  gemini-cli[:model]    gemini CLI
  claude-*              Anthropic API (ANTHROPIC_API_KEY)
  gemini-*              Gemini API (GEMINI_API_KEY)

Examples:
  cvtailor run
  cvtailor run --only 3 --only 7
  cvtailor run --generator claude-sonnet-4 --reviewer ollama:llama3
  cvtailor run --dry-run`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runOnlyFlag         []string
	runDryRunFlag       bool
	runNoCacheFlag      bool
	runRefreshCacheFlag bool
	runClearCacheFlag   bool
)

func init() {
	f := runCmd.Flags()
	f.StringP("generator", "g", "", "Agent that writes and revises drafts")
	f.StringP("reviewer", "r", "", "Agent that reviews drafts")
	f.StringP("jobs", "j", "", "Path to the job list JSON")
	f.StringP("output", "o", "", "Directory for generated documents")
	f.Int("max-edit-rounds", loop.DefaultCap, "Revisions before the last draft is kept as is")
	f.String("formats", "", "Output formats: txt, docx or txt,docx")
	f.StringSliceVar(&runOnlyFlag, "only", nil, "Only process these job numbers")
	f.BoolVar(&runDryRunFlag, "dry-run", false, "Print each job's initial prompt without calling a model")
	f.BoolVar(&runNoCacheFlag, "no-cache", false, "Skip the outcome cache")
	f.BoolVar(&runRefreshCacheFlag, "refresh-cache", false, "Recompute and overwrite cached outcomes")
	f.BoolVar(&runClearCacheFlag, "clear-cache", false, "Delete every cached outcome before running")

	_ = runCmd.RegisterFlagCompletionFunc("generator", completeAgents)
	_ = runCmd.RegisterFlagCompletionFunc("reviewer", completeAgents)

	v := config.Viper()
	for key, flag := range map[string]string{
		"generator":       "generator",
		"reviewer":        "reviewer",
		"jobs_path":       "jobs",
		"output_dir":      "output",
		"max_edit_rounds": "max-edit-rounds",
		"formats":         "formats",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runNoCacheFlag && runRefreshCacheFlag {
		return fmt.Errorf("cannot use --no-cache and --refresh-cache together")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if runClearCacheFlag {
		store := cache.New(cfg.CacheDir)
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		clog.Info("cleared outcome cache", "dir", store.Dir)
	}

	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	criteria, err := utils.ReadFile(cfg.CriteriaPath)
	if err != nil {
		return fmt.Errorf("failed to read criteria: %w", err)
	}
	baseResume, err := utils.ReadFile(cfg.BaseResumePath)
	if err != nil {
		return fmt.Errorf("failed to read base resume: %w", err)
	}
	ref := loop.Reference{Criteria: criteria, BaseResume: baseResume}

	list, err := jobs.Load(cfg.JobsPath)
	if err != nil {
		return err
	}
	list = jobs.Filter(list, runOnlyFlag)
	if len(list) == 0 {
		return fmt.Errorf("no jobs to process in %s", cfg.JobsPath)
	}

	prompts, err := prompt.Load(cfg.PromptsDir)
	if err != nil {
		return err
	}
	formats, err := output.ParseFormats(cfg.Formats)
	if err != nil {
		return err
	}
	writer := output.New(cfg.OutputDir, formats)

	opts := []pipeline.Option{pipeline.WithFetcher(jobs.NewFetcher())}

	var ctrl pipeline.Controller
	if runDryRunFlag {
		opts = append(opts, pipeline.WithDryRun(prompts, cmd.OutOrStdout()))
	} else {
		aiOpts := ai.Options{
			OllamaURL:         cfg.OllamaURL,
			Retries:           cfg.APIRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
			RequestTimeout:    cfg.RequestTimeout,
		}
		gen, err := ai.NewClient(cfg.Generator, aiOpts)
		if err != nil {
			return fmt.Errorf("generator: %w", err)
		}
		defer gen.Close()
		rev, err := ai.NewClient(cfg.Reviewer, aiOpts)
		if err != nil {
			return fmt.Errorf("reviewer: %w", err)
		}
		defer rev.Close()

		ctrl = loop.New(generate.New(gen, prompts), review.NewJudge(rev, prompts), ref,
			loop.WithCap(cfg.MaxEditRounds))

		if !runNoCacheFlag {
			salt := strings.Join([]string{
				cfg.Generator,
				cfg.Reviewer,
				prompts.Fingerprint(),
				strconv.Itoa(cfg.MaxEditRounds),
			}, "\x00")
			opts = append(opts, pipeline.WithCache(cache.New(cfg.CacheDir), salt, runRefreshCacheFlag))
		}
	}

	clog.Info("tailoring documents",
		"jobs", len(list),
		"generator", cfg.Generator,
		"reviewer", cfg.Reviewer,
		"max_edit_rounds", cfg.MaxEditRounds)

	sum, err := pipeline.New(ctrl, writer, ref, opts...).Run(ctx, list)
	if err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}

	if !quiet && !runDryRunFlag {
		printSummary(sum)
	}
	return nil
}

func printSummary(sum pipeline.Summary) {
	fmt.Fprintln(os.Stderr)
	for _, r := range sum.Results {
		switch r.Status {
		case pipeline.StatusWritten:
			fmt.Fprintf(os.Stderr, "%s job %s %s\n", style.Check(true), r.Job, style.C(style.Gray, "("+r.State+")"))
		case pipeline.StatusRaw:
			fmt.Fprintf(os.Stderr, "%sjob %s raw output only, see %s\n", style.Warning("⚠"), r.Job, strings.Join(r.Paths, ", "))
		case pipeline.StatusFailed:
			fmt.Fprintf(os.Stderr, "%s job %s %v\n", style.Check(false), r.Job, r.Err)
		}
	}
	fmt.Fprintf(os.Stderr, "\n%s%d written, %d raw, %d failed, %d from cache\n",
		style.Success("Done"), sum.Written, sum.Raw, sum.Failed, sum.Cached)
}

func completeAgents(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return ai.SupportedAgents(), cobra.ShellCompDirectiveNoFileComp
}
