package main

import (
	"github.com/phrazzld/tempo/internal/config"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Each call returns a fresh tree so tests
// can execute commands without sharing flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tempo",
		Short: "Adaptive task scheduler",
		Long: `tempo places natural-language tasks into free windows of the day
(morning, afternoon, evening, midnight) and adapts each user's behavioral
traits as tasks are completed or missed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (default: ./config.yaml if present)")
	root.PersistentFlags().StringSlice("env-file", nil, "Dotenv files to load (default: ./.env if present)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPlanCmd(),
		newTokenCmd(),
	)
	return root
}

// loadConfig loads configuration honoring the global flags, validating only
// the listed groups.
func loadConfig(cmd *cobra.Command, groups ...config.Group) (*config.Config, error) {
	var opts []config.Option

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if files, _ := cmd.Flags().GetStringSlice("env-file"); len(files) > 0 {
		opts = append(opts, config.WithEnvFiles(files...))
	}

	return config.LoadGroups(groups, opts...)
}
