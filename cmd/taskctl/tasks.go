package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/model"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Manage tasks",
}

var tasksListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks, newest first",
	Args:    cobra.NoArgs,
	RunE:    runTasksList,
}

var (
	tasksListStatus   = filterValue(model.FilterAll)
	tasksListSearch   string
	tasksListPage     int
	tasksListPageSize int
)

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksAdd,
}

var tasksAddDescription string

var tasksEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a task's title, description or status",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksEdit,
}

var (
	tasksEditTitle            string
	tasksEditDescription      string
	tasksEditClearDescription bool
	tasksEditStatus           statusValue
)

var tasksToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a task between pending and completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksToggle,
}

var tasksRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete one or more tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTasksRm,
}

var tasksCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show task counts by status",
	Args:  cobra.NoArgs,
	RunE:  runTasksCounts,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksEditCmd, tasksToggleCmd, tasksRmCmd, tasksCountsCmd)

	tasksListCmd.Flags().VarP(&tasksListStatus, "status", "s", "Filter by status (all, pending, completed)")
	tasksListCmd.Flags().StringVarP(&tasksListSearch, "search", "q", "", "Match title or description")
	tasksListCmd.Flags().IntVarP(&tasksListPage, "page", "p", 1, "Page number")
	tasksListCmd.Flags().IntVarP(&tasksListPageSize, "page-size", "n", model.DefaultPageSize, "Tasks per page")

	tasksAddCmd.Flags().StringVarP(&tasksAddDescription, "description", "d", "", "Description")

	tasksEditCmd.Flags().StringVar(&tasksEditTitle, "title", "", "New title")
	tasksEditCmd.Flags().StringVarP(&tasksEditDescription, "description", "d", "", "New description")
	tasksEditCmd.Flags().BoolVar(&tasksEditClearDescription, "clear-description", false, "Remove the description")
	tasksEditCmd.Flags().Var(&tasksEditStatus, "status", "New status (pending, completed)")
	tasksEditCmd.MarkFlagsMutuallyExclusive("description", "clear-description")
}

func runTasksList(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}

	q := model.NewTaskQuery().
		WithStatus(model.StatusFilter(tasksListStatus)).
		WithSearch(tasksListSearch).
		WithPage(tasksListPage).
		WithPageSize(tasksListPageSize)

	page, err := client.NewTaskFeed(c).Load(cmd.Context(), q)
	if err != nil {
		return err
	}
	if jsonOutput {
		return encodeJSON(cmd.OutOrStdout(), page)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatTaskPage(page))
	return nil
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}

	in := model.NewTask{
		Title:       args[0],
		Description: changedString(cmd.Flags(), "description", tasksAddDescription),
	}
	task, err := c.CreateTask(cmd.Context(), in)
	if err != nil {
		return err
	}
	return printTask(cmd, task, "Created")
}

func runTasksEdit(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}

	patch := model.TaskPatch{
		Title:            changedString(cmd.Flags(), "title", tasksEditTitle),
		Description:      changedString(cmd.Flags(), "description", tasksEditDescription),
		ClearDescription: tasksEditClearDescription,
	}
	if cmd.Flags().Changed("status") {
		st := model.TaskStatus(tasksEditStatus)
		patch.Status = &st
	}

	task, err := c.UpdateTaskReturning(cmd.Context(), args[0], patch)
	if err != nil {
		return err
	}
	return printTask(cmd, task, "Updated")
}

func runTasksToggle(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}
	task, err := c.ToggleTask(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printTask(cmd, task, "Toggled")
}

func runTasksRm(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}
	for _, id := range args {
		if err := c.DeleteTask(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Deleted"), id)
	}
	return nil
}

func runTasksCounts(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}
	counts, err := c.TaskCounts(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return encodeJSON(cmd.OutOrStdout(), counts)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatCounts(counts))
	return nil
}

func printTask(cmd *cobra.Command, task *model.Task, verb string) error {
	if jsonOutput {
		return encodeJSON(cmd.OutOrStdout(), task)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", successStyle.Render(verb), mutedStyle.Render(task.ID), task.Title)
	return nil
}
