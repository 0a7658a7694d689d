package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"inkwell/internal/api"
	"inkwell/internal/cache"
	"inkwell/internal/confirm"
)

func newChapterCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapter",
		Short: "Manage chapters",
	}
	cmd.AddCommand(newChapterListCommand(ctx))
	cmd.AddCommand(newChapterShowCommand(ctx))
	cmd.AddCommand(newChapterCreateCommand(ctx))
	cmd.AddCommand(newChapterEditCommand(ctx))
	cmd.AddCommand(newChapterDeleteCommand(ctx))
	return cmd
}

func newChapterListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the project's chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			chapters, err := ctx.apiClient().ListChapters(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			if len(chapters) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No chapters yet.")
				return nil
			}

			rows := make([][]string, 0, len(chapters))
			for _, ch := range chapters {
				updated := formatTime(ch.CreatedAt)
				if ch.UpdatedAt != nil {
					updated = formatTime(*ch.UpdatedAt)
				}
				rows = append(rows, []string{
					strconv.FormatInt(ch.ID, 10),
					strconv.Itoa(ch.ChapterNumber),
					derefOr(ch.Title, "(untitled)"),
					strconv.Itoa(ch.WordCount),
					updated,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "NO.", "TITLE", "WORDS", "UPDATED"}, rows, 0, 1, 3))
			return nil
		},
	}
}

func newChapterShowCommand(ctx *commandContext) *cobra.Command {
	var notes bool

	cmd := &cobra.Command{
		Use:   "show <chapter-id>",
		Short: "Print a chapter's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter")
			if err != nil {
				return err
			}

			chapter, err := ctx.docSession().Select(cmd.Context(), chapterID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chapter %d: %s (%d words)\n\n",
				chapter.ChapterNumber, derefOr(chapter.Title, "(untitled)"), chapter.WordCount)
			fmt.Fprintln(out, chapter.Content)
			if notes && chapter.Notes != nil && *chapter.Notes != "" {
				fmt.Fprintf(out, "\nNotes:\n%s\n", *chapter.Notes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notes, "notes", false, "Include chapter notes")
	return cmd
}

func newChapterCreateCommand(ctx *commandContext) *cobra.Command {
	var number int
	var title string
	var contentFile string

	cmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Create a chapter from a content file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			content, err := os.ReadFile(contentFile)
			if err != nil {
				return fmt.Errorf("read content file: %w", err)
			}

			req := api.CreateChapterRequest{
				ChapterNumber: number,
				Content:       string(content),
			}
			if title != "" {
				req.Title = &title
			}

			chapter, err := ctx.apiClient().CreateChapter(cmd.Context(), projectID, req)
			if err != nil {
				return err
			}
			ctx.cacheStore().Invalidate(cache.Event{
				Mutation:  cache.ChapterCreated,
				ProjectID: projectID,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Created chapter %d (id %d, %d words).\n",
				chapter.ChapterNumber, chapter.ID, chapter.WordCount)
			return nil
		},
	}

	cmd.Flags().IntVarP(&number, "number", "n", 0, "Chapter number (required)")
	cmd.Flags().StringVar(&title, "title", "", "Chapter title")
	cmd.Flags().StringVarP(&contentFile, "content-file", "f", "", "File holding the chapter content (required)")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("content-file")
	return cmd
}

func newChapterEditCommand(ctx *commandContext) *cobra.Command {
	var contentFile string
	var notesFile string
	var notes string

	cmd := &cobra.Command{
		Use:   "edit <chapter-id>",
		Short: "Replace a chapter's content and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter")
			if err != nil {
				return err
			}
			if contentFile == "" && notesFile == "" && !cmd.Flags().Changed("notes") {
				return fmt.Errorf("nothing to edit: pass --content-file, --notes-file, or --notes")
			}

			sess := ctx.docSession()
			if _, err := sess.Select(cmd.Context(), chapterID); err != nil {
				return err
			}

			if contentFile != "" {
				content, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("read content file: %w", err)
				}
				if err := sess.SetContent(string(content)); err != nil {
					return err
				}
			}
			if notesFile != "" {
				data, err := os.ReadFile(notesFile)
				if err != nil {
					return fmt.Errorf("read notes file: %w", err)
				}
				if err := sess.SetNotes(string(data)); err != nil {
					return err
				}
			} else if cmd.Flags().Changed("notes") {
				if err := sess.SetNotes(notes); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saving (%d words locally)...\n", sess.WordCount())
			saved, err := sess.Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved chapter %d: %d words.\n", saved.ID, saved.WordCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contentFile, "content-file", "f", "", "File holding the new chapter content")
	cmd.Flags().StringVar(&notesFile, "notes-file", "", "File holding the new chapter notes")
	cmd.Flags().StringVar(&notes, "notes", "", "Replace the chapter notes inline")
	return cmd
}

func newChapterDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chapter-id>",
		Short: "Delete a chapter and its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapterID, err := parseID(args[0], "chapter")
			if err != nil {
				return err
			}

			sess := ctx.docSession()
			if _, err := sess.Select(cmd.Context(), chapterID); err != nil {
				return err
			}

			pending, err := sess.RequestDelete()
			if err != nil {
				return err
			}
			return ctx.runConfirmed(cmd, pending, func(token confirm.Token) error {
				if err := sess.Delete(cmd.Context(), token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted chapter %d.\n", chapterID)
				return nil
			})
		},
	}
}
