package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvtailor/pkg/config"
	"github.com/xrsl/cvtailor/pkg/prompt"
	"github.com/xrsl/cvtailor/pkg/style"
	"github.com/xrsl/cvtailor/pkg/utils"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cvtailor in this directory",
	Long: `Initialize cvtailor configuration, input files and prompt templates.

Creates (existing files are kept):
  .cvtailor.yaml            Configuration file
  data/job_inputs.json      Job list
  data/criteria.txt         Requirements every draft must meet
  data/base_resume.txt      Your current resume
  .cvtailor/prompts/        Editable prompt templates

Use --reset to restore the default prompt templates.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initResetFlag bool
	initForceFlag bool
)

const sampleJobs = `[
  {
    "job_number": 1,
    "job_title": "Software Engineer",
    "job_posting_company": "Example Corp",
    "job_posting_url": "https://example.com/jobs/1",
    "job_posting_content": "Paste the job description here, or leave it empty to fetch job_posting_url."
  }
]
`

const sampleCriteria = `- One page resume.
- Every role lists dates and location.
- The cover letter names the company and the role.
- No placeholder text.
`

const sampleResume = `Your Name
email@example.com

Experience
- ...
`

func init() {
	initCmd.Flags().BoolVar(&initResetFlag, "reset", false, "Overwrite prompt templates with the defaults")
	initCmd.Flags().BoolVar(&initForceFlag, "force", false, "Overwrite an existing config file with the defaults")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefaults(initForceFlag); err != nil {
		fmt.Printf("%s %s kept (%v)\n", style.C(style.Gray, "○"), config.Path(), err)
	} else {
		fmt.Printf("%s %s\n", style.Check(true), config.Path())
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	for _, f := range []struct {
		path    string
		content string
	}{
		{cfg.JobsPath, sampleJobs},
		{cfg.CriteriaPath, sampleCriteria},
		{cfg.BaseResumePath, sampleResume},
	} {
		if utils.FileExists(f.path) {
			fmt.Printf("%s %s kept\n", style.C(style.Gray, "○"), f.path)
			continue
		}
		if err := utils.WriteFile(f.path, f.content); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.path, err)
		}
		fmt.Printf("%s %s\n", style.Check(true), f.path)
	}

	write := prompt.Init
	if initResetFlag {
		write = prompt.Reset
	}
	if err := write(cfg.PromptsDir); err != nil {
		return fmt.Errorf("failed to write prompt templates: %w", err)
	}
	fmt.Printf("%s %s\n", style.Check(true), filepath.Clean(cfg.PromptsDir)+"/")

	fmt.Printf("\n%sEdit the files in %s, then run %s\n",
		style.Success("Ready"), filepath.Dir(cfg.JobsPath), style.C(style.Cyan, "cvtailor run"))
	return nil
}
