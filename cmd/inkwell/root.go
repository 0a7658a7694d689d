package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
)

func newRootCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var apiURLFlag string
	var timeoutFlag int
	var yesFlag bool

	ctx := newCommandContext(cfg, logger, &apiURLFlag, &timeoutFlag, &yesFlag)

	rootCmd := &cobra.Command{
		Use:           "inkwell",
		Short:         "Fiction writing workbench client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Base URL of the inkwell service (overrides config)")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 0, "Request timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Answer yes to every confirmation prompt")

	rootCmd.AddCommand(newProjectCommand(ctx))
	rootCmd.AddCommand(newChapterCommand(ctx))
	rootCmd.AddCommand(newVersionCommand(ctx))
	rootCmd.AddCommand(newEntityCommand(ctx))
	rootCmd.AddCommand(newAssistantCommand(ctx))

	return rootCmd
}
