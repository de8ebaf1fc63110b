package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/domain"
)

// subtaskCmd groups the subtask commands.
var subtaskCmd = &cobra.Command{
	Use:   "subtask",
	Short: "Manage a task's subtasks",
	Long: `Add subtasks and link them to grid cells. Completing a linked subtask
fills its cell, and uncompleting it clears the cell.

Subtasks are addressed by their number in "flow-grid show" or by ID prefix.`,
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add [task] [title]",
	Short: "Add a subtask",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, err := resolveTask(ctx, args[0])
		if err != nil {
			return err
		}
		task, st, err := app.tasks.AddSubtask(ctx, task.ID, strings.Join(args[1:], " "))
		if err != nil {
			return fmt.Errorf("failed to add subtask: %w", err)
		}
		return printSubtaskResult(cmd, task, fmt.Sprintf("Subtask added: %s", st.Title))
	},
}

var subtaskLinkCmd = &cobra.Command{
	Use:   "link [task] [subtask] [cell]",
	Short: "Link a subtask to a grid cell",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, st, err := resolveSubtask(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		index, err := parseCell(args[2])
		if err != nil {
			return err
		}
		task, err = app.tasks.LinkSubtask(ctx, task.ID, st.ID, index)
		if err != nil {
			return fmt.Errorf("failed to link subtask: %w", err)
		}
		return printSubtaskResult(cmd, task, fmt.Sprintf("Linked %q to cell %d", st.Title, index+1))
	},
}

var subtaskUnlinkCmd = &cobra.Command{
	Use:   "unlink [task] [subtask]",
	Short: "Remove a subtask's grid link",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, st, err := resolveSubtask(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		task, err = app.tasks.UnlinkSubtask(ctx, task.ID, st.ID)
		if err != nil {
			return fmt.Errorf("failed to unlink subtask: %w", err)
		}
		return printSubtaskResult(cmd, task, fmt.Sprintf("Unlinked %q", st.Title))
	},
}

var subtaskDoneCmd = &cobra.Command{
	Use:   "done [task] [subtask]",
	Short: "Complete a subtask",
	Args:  cobra.ExactArgs(2),
	RunE:  setSubtask(true),
}

var subtaskUndoCmd = &cobra.Command{
	Use:   "undo [task] [subtask]",
	Short: "Uncomplete a subtask",
	Args:  cobra.ExactArgs(2),
	RunE:  setSubtask(false),
}

func init() {
	subtaskCmd.AddCommand(subtaskAddCmd, subtaskLinkCmd, subtaskUnlinkCmd, subtaskDoneCmd, subtaskUndoCmd)
	rootCmd.AddCommand(subtaskCmd)
}

func setSubtask(completed bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, st, err := resolveSubtask(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		task, err = app.tasks.SetSubtaskCompleted(ctx, task.ID, st.ID, completed)
		if err != nil {
			return fmt.Errorf("failed to update subtask: %w", err)
		}
		verb := "Completed"
		if !completed {
			verb = "Reopened"
		}
		return printSubtaskResult(cmd, task, fmt.Sprintf("%s %q", verb, st.Title))
	}
}

// resolveSubtask finds a subtask by 1-based position or ID prefix.
func resolveSubtask(ctx context.Context, taskRef, ref string) (*domain.Task, *domain.Subtask, error) {
	task, err := resolveTask(ctx, taskRef)
	if err != nil {
		return nil, nil, err
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(task.Subtasks) {
			return nil, nil, fmt.Errorf("subtask %d out of range (task has %d): %w", n, len(task.Subtasks), domain.ErrSubtaskNotFound)
		}
		return task, &task.Subtasks[n-1], nil
	}

	var found *domain.Subtask
	for i := range task.Subtasks {
		if strings.HasPrefix(task.Subtasks[i].ID, ref) {
			if found != nil {
				return nil, nil, fmt.Errorf("subtask %q is ambiguous", ref)
			}
			found = &task.Subtasks[i]
		}
	}
	if found == nil {
		return nil, nil, fmt.Errorf("subtask %q: %w", ref, domain.ErrSubtaskNotFound)
	}
	return task, found, nil
}

// parseCell converts a 1-based cell number to a grid index.
func parseCell(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid cell %q: cells are numbered from 1", s)
	}
	return n - 1, nil
}

func printSubtaskResult(cmd *cobra.Command, task *domain.Task, message string) error {
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), taskJSON(task, nil))
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, message)
	fmt.Fprintf(out, "   Grid: %d/%d\n", task.ProgressGridFilled, task.ProgressGridSize)
	printSubtasks(out, task)
	return nil
}
