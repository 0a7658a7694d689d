package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"inkwell/internal/confirm"
	"inkwell/internal/domain"
	"inkwell/internal/entity"
)

func newEntityCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Browse and curate detected entities",
	}
	cmd.AddCommand(newEntityListCommand(ctx))
	cmd.AddCommand(newEntityMentionsCommand(ctx))
	cmd.AddCommand(newEntityUpdateCommand(ctx))
	cmd.AddCommand(newEntityDeleteCommand(ctx))
	cmd.AddCommand(newEntityDuplicatesCommand(ctx))
	cmd.AddCommand(newEntityMergeCommand(ctx))
	return cmd
}

// findEntity resolves an entity id through the project listing, which also
// warms the view's cache.
func findEntity(cmd *cobra.Command, view *entity.View, entityID int64) (domain.Entity, error) {
	entities, err := view.List(cmd.Context(), "")
	if err != nil {
		return domain.Entity{}, err
	}
	for _, e := range entities {
		if e.ID == entityID {
			return e, nil
		}
	}
	return domain.Entity{}, &domain.NotFoundError{Message: fmt.Sprintf("entity %d not found in project", entityID)}
}

func newEntityListCommand(ctx *commandContext) *cobra.Command {
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the project's entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			view := ctx.entityView(projectID)
			entities, err := view.List(cmd.Context(), domain.EntityType(typeFilter))
			if err != nil {
				return err
			}
			if len(entities) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entities detected yet.")
				return nil
			}

			rows := make([][]string, 0, len(entities))
			for _, e := range entities {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.Name,
					string(e.EntityType),
					strconv.Itoa(e.MentionCount),
					strings.Join(e.Aliases, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "NAME", "TYPE", "MENTIONS", "ALIASES"}, rows, 0, 3))
			return nil
		},
	}

	types := make([]string, 0, len(domain.EntityTypes()))
	for _, t := range domain.EntityTypes() {
		types = append(types, string(t))
	}
	cmd.Flags().StringVarP(&typeFilter, "type", "t", "", "Filter by entity type ("+strings.Join(types, ", ")+")")
	return cmd
}

func newEntityMentionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mentions <project-id> <entity-id>",
		Short: "Show every mention of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			entityID, err := parseID(args[1], "entity")
			if err != nil {
				return err
			}

			view := ctx.entityView(projectID)
			e, err := findEntity(cmd, view, entityID)
			if err != nil {
				return err
			}
			mentions, err := view.Select(cmd.Context(), e)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s), %d mentions\n", e.Name, e.EntityType, len(mentions))
			for _, m := range mentions {
				fmt.Fprintf(out, "\nChapter %d, as %q:\n  %s\n", m.ChapterNumber, m.MentionedAs, m.Context)
			}
			return nil
		},
	}
}

func newEntityUpdateCommand(ctx *commandContext) *cobra.Command {
	var form entity.Form

	cmd := &cobra.Command{
		Use:   "update <project-id> <entity-id>",
		Short: "Edit an entity's name, type, description, or aliases",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			entityID, err := parseID(args[1], "entity")
			if err != nil {
				return err
			}

			updated, err := ctx.entityView(projectID).Update(cmd.Context(), entityID, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s", updated.Name)
			if len(updated.Aliases) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (aliases: %s)", strings.Join(updated.Aliases, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "New entity name")
	cmd.Flags().StringVar(&form.EntityType, "type", "", "New entity type")
	cmd.Flags().StringVar(&form.Description, "description", "", "New description")
	cmd.Flags().StringVar(&form.Aliases, "aliases", "", "Comma-separated aliases (replaces the current set)")
	return cmd
}

func newEntityDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id> <entity-id>",
		Short: "Delete an entity and all its mentions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			entityID, err := parseID(args[1], "entity")
			if err != nil {
				return err
			}

			view := ctx.entityView(projectID)
			e, err := findEntity(cmd, view, entityID)
			if err != nil {
				return err
			}

			pending := view.RequestDelete(e)
			return ctx.runConfirmed(cmd, pending, func(token confirm.Token) error {
				if err := view.Delete(cmd.Context(), entityID, token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", e.Name)
				return nil
			})
		},
	}
}

func newEntityDuplicatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates <project-id>",
		Short: "Show likely-duplicate entity groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}

			groups, err := ctx.entityView(projectID).Duplicates(cmd.Context())
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No likely duplicates found.")
				return nil
			}

			out := cmd.OutOrStdout()
			for i, group := range groups {
				keep := group.Keep()
				if keep == nil {
					continue
				}
				fmt.Fprintf(out, "Group %d: keep %s (id %d), merge", i+1, keep.Name, keep.ID)
				for _, e := range group.Entities[1:] {
					fmt.Fprintf(out, " %s (id %d)", e.Name, e.ID)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newEntityMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <project-id> <keep-id> <merge-id>...",
		Short: "Merge duplicate entities into one",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			keepID, err := parseID(args[1], "entity")
			if err != nil {
				return err
			}
			mergeIDs := make([]int64, 0, len(args)-2)
			for _, arg := range args[2:] {
				id, err := parseID(arg, "entity")
				if err != nil {
					return err
				}
				mergeIDs = append(mergeIDs, id)
			}

			view := ctx.entityView(projectID)
			keep, err := findEntity(cmd, view, keepID)
			if err != nil {
				return err
			}

			pending := view.RequestMerge(keep, mergeIDs)
			return ctx.runConfirmed(cmd, pending, func(token confirm.Token) error {
				if err := view.Merge(cmd.Context(), keepID, mergeIDs, token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Merged %d entities into %s.\n", len(mergeIDs), keep.Name)
				return nil
			})
		},
	}
}
