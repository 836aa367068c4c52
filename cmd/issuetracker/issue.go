package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"issuetracker/internal/models"
	"issuetracker/internal/output"
)

var issueFilters []string

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Inspect stored issues",
}

var issueListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List issues for a project",
	Long: `List issues for a project straight from the configured store.

Filters use the same field names as the HTTP API query string, e.g.
  issuetracker issue list apitest --filter open=false --filter assigned_to=Joe`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun(cmd.Context(), args[0], issueFilters)
	},
}

func init() {
	issueListCmd.Flags().StringArrayVarP(&issueFilters, "filter", "f", nil, "Equality filter as field=value (repeatable)")
	issueCmd.AddCommand(issueListCmd)
	rootCmd.AddCommand(issueCmd)
}

func issueListRun(ctx context.Context, project string, filters []string) error {
	query := map[string]string{}
	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid filter %q (want field=value)", f)
		}
		query[key] = value
	}
	query[models.FieldProject] = project

	filter, err := models.ParseFilter(query)
	if errors.Is(err, models.ErrUnknownField) {
		return fmt.Errorf("unsupported filter: %w", err)
	}
	if err != nil {
		return err
	}

	store, err := openStore(ctx, newLogger(ui.ErrOut))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	issues, err := store.ListIssues(ctx, filter)
	if err != nil {
		return fmt.Errorf("list issues: %w", err)
	}

	if len(issues) == 0 {
		ui.Info("No issues found for project %s", project)
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "Created By", "Assigned To", "Status", "State", "Updated"})
	for _, i := range issues {
		_ = table.Append([]string{
			i.ID,
			i.IssueTitle,
			i.CreatedBy,
			i.AssignedTo,
			i.StatusText,
			output.OpenColor(i.Open),
			i.UpdatedOn.Local().Format(time.DateTime),
		})
	}
	_ = table.Render()

	ui.VerboseLog("%d issue(s)", len(issues))
	return nil
}
