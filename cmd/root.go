package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	clog "github.com/xrsl/cvtailor/pkg/log"
	"github.com/xrsl/cvtailor/pkg/style"
)

var (
	quiet     bool
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cvtailor",
	Short: "Tailor a resume and cover letter to each job posting",
	Long: `cvtailor drafts a resume and cover letter for every job in a list,
has a second model review each draft against your criteria, and revises
rejected drafts with the reviewer's feedback.

Inputs live in data/ by default: job_inputs.json, criteria.txt and
base_resume.txt. Documents are written to generated/<company>/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		clog.SetVerbose(verbose)
		clog.SetQuiet(quiet)
		return clog.SetFormat(logFormat)
	},
}

func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, style.Failure("Error")+err.Error())
		os.Exit(1)
	}
}

func init() {
	style.SetupHelp(rootCmd)

	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output, including reviewer verdicts")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}
