package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvtailor/pkg/ai"
	"github.com/xrsl/cvtailor/pkg/config"
	"github.com/xrsl/cvtailor/pkg/jobs"
	"github.com/xrsl/cvtailor/pkg/ollama"
	"github.com/xrsl/cvtailor/pkg/prompt"
	"github.com/xrsl/cvtailor/pkg/style"
	"github.com/xrsl/cvtailor/pkg/utils"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check setup for cvtailor run",
	Long:  `Verify the configured agents are reachable and the input files load.`,
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("%s config: %v\n", style.Check(false), err)
		return fmt.Errorf("setup issues detected")
	}

	allGood := true
	report := func(ok bool, format string, a ...any) {
		fmt.Printf("%s %s\n", style.Check(ok), fmt.Sprintf(format, a...))
		if !ok {
			allGood = false
		}
	}

	fmt.Printf("%s Checking agents\n\n", style.C(style.Blue, "→"))
	checked := map[string]bool{}
	for _, role := range []struct{ name, agent string }{
		{"generator", cfg.Generator},
		{"reviewer", cfg.Reviewer},
	} {
		if checked[role.agent] {
			report(true, "%s uses %s", role.name, role.agent)
			continue
		}
		checked[role.agent] = true
		if err := checkAgent(cmd.Context(), role.agent, cfg.OllamaURL); err != nil {
			report(false, "%s %s: %v", role.name, role.agent, err)
		} else {
			report(true, "%s %s available", role.name, role.agent)
		}
	}

	fmt.Printf("\n%s Checking inputs\n\n", style.C(style.Blue, "→"))
	for _, path := range []string{cfg.CriteriaPath, cfg.BaseResumePath} {
		report(utils.FileExists(path), "%s", path)
	}
	if list, err := jobs.Load(cfg.JobsPath); err != nil {
		report(false, "%s: %v", cfg.JobsPath, err)
	} else {
		fetch := 0
		for _, j := range list {
			if j.NeedsFetch() {
				fetch++
			}
			if err := j.Validate(); err != nil {
				fmt.Printf("  %sjob %s will be skipped: %v\n", style.Warning("warning"), j.Number, err)
			}
		}
		report(true, "%s (%d jobs, %d to fetch)", cfg.JobsPath, len(list), fetch)
	}
	if _, err := prompt.Load(cfg.PromptsDir); err != nil {
		report(false, "prompt templates: %v", err)
	} else {
		report(true, "prompt templates")
	}

	fmt.Println()
	if !allGood {
		return fmt.Errorf("setup issues detected")
	}
	fmt.Printf("%s Setup OK\n", style.Check(true))
	return nil
}

func checkAgent(ctx context.Context, agent, ollamaURL string) error {
	switch {
	case ai.IsAgentOllama(agent):
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		model := strings.TrimPrefix(strings.TrimPrefix(agent, "ollama"), ":")
		c := ollama.NewClient(ollamaURL, model, ollama.Options{})
		defer c.Close()
		if err := c.Ping(ctx); err != nil {
			return fmt.Errorf("%w (start it with: ollama serve)", err)
		}
		return nil
	case ai.IsAgentCLI(agent):
		if !ai.IsAgentSupported(agent) {
			return fmt.Errorf("CLI not found in PATH")
		}
		return nil
	case strings.HasPrefix(agent, "claude-"):
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	case strings.HasPrefix(agent, "gemini-"):
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("GEMINI_API_KEY not set")
		}
	}
	if !ai.IsAgentSupported(agent) {
		return fmt.Errorf("unknown agent")
	}
	return nil
}
