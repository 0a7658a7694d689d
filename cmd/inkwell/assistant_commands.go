package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAssistantCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Ask questions about a project's story",
	}
	cmd.AddCommand(newAssistantAskCommand(ctx))
	cmd.AddCommand(newAssistantRebuildCommand(ctx))
	return cmd
}

func newAssistantAskCommand(ctx *commandContext) *cobra.Command {
	var rebuildKB bool

	cmd := &cobra.Command{
		Use:   "ask <project-id> <question>...",
		Short: "Ask the assistant a question about the story",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			question := strings.Join(args[1:], " ")

			exchange, err := ctx.assistantSession(projectID).Ask(cmd.Context(), question, rebuildKB)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, exchange.Answer)
			if len(exchange.Sources) > 0 {
				fmt.Fprintln(out, "\nSources:")
				for _, src := range exchange.Sources {
					switch src.Type {
					case "chapter":
						fmt.Fprintf(out, "  - chapter %s (%s): %s\n",
							intOr(src.ChapterNumber, "?"), derefOr(src.ChapterTitle, "untitled"), src.ContentPreview)
					case "entity":
						fmt.Fprintf(out, "  - %s (%s): %s\n",
							derefOr(src.EntityName, "entity"), derefOr(src.EntityType, "unknown"), src.ContentPreview)
					default:
						fmt.Fprintf(out, "  - %s\n", src.ContentPreview)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuildKB, "rebuild-kb", false, "Rebuild the knowledge base before answering (slow)")
	return cmd
}

func newAssistantRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <project-id>",
		Short: "Rebuild the project's knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Rebuilding knowledge base, this can take a while...")
			if err := ctx.assistantSession(projectID).RebuildKnowledgeBase(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Knowledge base rebuilt.")
			return nil
		},
	}
}

func intOr(v *int, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf("%d", *v)
}
