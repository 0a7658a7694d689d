package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"inkwell/internal/confirm"
)

func newVersionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Snapshot and restore chapter versions",
	}
	cmd.AddCommand(newVersionListCommand(ctx))
	cmd.AddCommand(newVersionShowCommand(ctx))
	cmd.AddCommand(newVersionCreateCommand(ctx))
	cmd.AddCommand(newVersionRestoreCommand(ctx))
	return cmd
}

func newVersionListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <chapter-id>",
		Short: "List a chapter's versions, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter")
			if err != nil {
				return err
			}

			versions, err := ctx.coordinator().Versions(cmd.Context(), chapterID)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No versions yet.")
				return nil
			}

			rows := make([][]string, 0, len(versions))
			for _, v := range versions {
				rows = append(rows, []string{
					strconv.FormatInt(v.ID, 10),
					"v" + strconv.Itoa(v.VersionNumber),
					strconv.Itoa(v.WordCount),
					formatTime(v.CreatedAt),
					derefOr(v.ChangeSummary, ""),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "VERSION", "WORDS", "CREATED", "SUMMARY"}, rows, 0, 2))
			return nil
		},
	}
}

func newVersionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <version-id>",
		Short: "Print a version's full content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionID, err := parseID(args[0], "version")
			if err != nil {
				return err
			}

			version, err := ctx.coordinator().Content(cmd.Context(), versionID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version %d (%d words, %s)\n",
				version.VersionNumber, version.WordCount, formatTime(version.CreatedAt))
			if version.ChangeSummary != nil && *version.ChangeSummary != "" {
				fmt.Fprintf(out, "Summary: %s\n", *version.ChangeSummary)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, derefOr(version.Content, ""))
			return nil
		},
	}
}

func newVersionCreateCommand(ctx *commandContext) *cobra.Command {
	var summary string

	cmd := &cobra.Command{
		Use:   "create <chapter-id>",
		Short: "Snapshot the chapter's saved content as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter")
			if err != nil {
				return err
			}

			number, err := ctx.coordinator().Snapshot(cmd.Context(), chapterID, summary)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created version %d of chapter %d.\n", number, chapterID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&summary, "summary", "s", "", "Change summary for the version")
	return cmd
}

func newVersionRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <chapter-id> <version-id>",
		Short: "Restore a chapter to an earlier version",
		Long: "Restore a chapter to an earlier version. The current content is\n" +
			"backed up as a fresh version first, so a restore is always undoable.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter")
			if err != nil {
				return err
			}
			versionID, err := parseID(args[1], "version")
			if err != nil {
				return err
			}

			// The chapter's project scopes the cache invalidation.
			chapter, err := ctx.apiClient().GetChapter(cmd.Context(), chapterID)
			if err != nil {
				return err
			}

			coord := ctx.coordinator()
			pending := coord.RequestRestore(chapterID, versionID)
			return ctx.runConfirmed(cmd, pending, func(token confirm.Token) error {
				if err := coord.Restore(cmd.Context(), chapter.ProjectID, chapterID, versionID, token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored chapter %d. The previous content was backed up as a new version.\n", chapterID)
				return nil
			})
		},
	}
}
