package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrsl/cvtailor/pkg/config"
	"github.com/xrsl/cvtailor/pkg/style"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cvtailor configuration",
	Long: `Read and write settings in .cvtailor.yaml.

Every key can also be set with an environment variable, for example
CVTAILOR_GENERATOR or CVTAILOR_MAX_EDIT_ROUNDS.

  cvtailor config list
  cvtailor config get <key>
  cvtailor config set <key> <value>`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value.

Examples:
  cvtailor config set generator claude-sonnet-4
  cvtailor config set reviewer ollama:llama3:latest
  cvtailor config set max_edit_rounds 3
  cvtailor config set request_timeout 2m`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return config.Keys(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Get a config value",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.Get(args[0])
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Println("(not set)")
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config values",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := config.All()
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n", style.B(style.C(style.Cyan, "cvtailor config")))
		fmt.Printf("%s\n\n", style.C(style.Gray, config.Path()))

		for _, key := range config.Keys() {
			printConfigRow(key, all[key], config.IsDefault(key))
		}
		fmt.Println()
		return nil
	},
}

func printConfigRow(key, value string, isDefault bool) {
	switch {
	case value == "":
		fmt.Printf("  %-20s %s\n", key, style.C(style.Gray, "(not set)"))
	case isDefault:
		fmt.Printf("  %-20s %s %s\n", key, value, style.C(style.Gray, "(default)"))
	default:
		fmt.Printf("  %-20s %s\n", key, style.C(style.Green, value))
	}
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
