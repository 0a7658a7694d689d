package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"inkwell/internal/api"
	"inkwell/internal/cache"
	"inkwell/internal/confirm"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage writing projects",
	}
	cmd.AddCommand(newProjectListCommand(ctx))
	cmd.AddCommand(newProjectCreateCommand(ctx))
	cmd.AddCommand(newProjectShowCommand(ctx))
	cmd.AddCommand(newProjectDeleteCommand(ctx))
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := ctx.apiClient().ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects yet.")
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				own := "no"
				if p.IsOwnWriting {
					own = "yes"
				}
				rows = append(rows, []string{
					strconv.FormatInt(p.ID, 10),
					p.Title,
					strconv.Itoa(p.ChapterCount),
					own,
					formatTime(p.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "TITLE", "CHAPTERS", "OWN WRITING", "CREATED"}, rows, 0, 2))
			return nil
		},
	}
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var description string
	var ownWriting bool

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.CreateProjectRequest{
				Title:        args[0],
				IsOwnWriting: ownWriting,
			}
			if description != "" {
				req.Description = &description
			}

			project, err := ctx.apiClient().CreateProject(cmd.Context(), req)
			if err != nil {
				return err
			}
			ctx.cacheStore().Invalidate(cache.Event{Mutation: cache.ProjectCreated})

			fmt.Fprintf(cmd.OutOrStdout(), "Created project %d: %s\n", project.ID, project.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().BoolVar(&ownWriting, "own-writing", false, "Mark the project as your own writing")
	return cmd
}

func newProjectShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			project, err := ctx.apiClient().GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			chapters, err := ctx.apiClient().ListChapters(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project %d: %s\n", project.ID, project.Title)
			if project.Description != nil && *project.Description != "" {
				fmt.Fprintln(out, *project.Description)
			}
			if len(chapters) == 0 {
				fmt.Fprintln(out, "No chapters yet.")
				return nil
			}

			rows := make([][]string, 0, len(chapters))
			for _, ch := range chapters {
				rows = append(rows, []string{
					strconv.FormatInt(ch.ID, 10),
					strconv.Itoa(ch.ChapterNumber),
					derefOr(ch.Title, "(untitled)"),
					strconv.Itoa(ch.WordCount),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "NO.", "TITLE", "WORDS"}, rows, 0, 1, 3))
			return nil
		},
	}
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			project, err := ctx.apiClient().GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}

			pending := ctx.confirmGate().Request(confirm.DeleteProject,
				fmt.Sprintf("Delete project %q and its %d chapters? This cannot be undone.",
					project.Title, project.ChapterCount))

			return ctx.runConfirmed(cmd, pending, func(token confirm.Token) error {
				if err := ctx.confirmGate().Consume(token, confirm.DeleteProject); err != nil {
					return err
				}
				if err := ctx.apiClient().DeleteProject(cmd.Context(), id); err != nil {
					return err
				}
				ctx.cacheStore().Invalidate(cache.Event{
					Mutation:  cache.ProjectDeleted,
					ProjectID: id,
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d.\n", id)
				return nil
			})
		},
	}
}
