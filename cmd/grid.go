package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
)

// gridCmd groups the progress grid commands.
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Edit a task's progress grid",
	Long:  `Toggle, fill or resize a task's progress grid. Cells are numbered from 1.`,
}

var gridToggleCmd = &cobra.Command{
	Use:   "toggle [task] [cell]",
	Short: "Fill or clear one cell",
	Long: `Fill or clear one cell. Cells linked to a subtask are not toggled;
use "flow-grid subtask done" or "undo" instead.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, err := resolveTask(ctx, args[0])
		if err != nil {
			return err
		}
		index, err := parseCell(args[1])
		if err != nil {
			return err
		}

		res, err := app.tasks.ToggleCell(ctx, task.ID, index)
		if err != nil {
			return fmt.Errorf("failed to toggle cell: %w", err)
		}
		if res.Linked != nil {
			return fmt.Errorf("cell %d belongs to subtask %q; complete or reopen the subtask instead", index+1, res.Linked.Title)
		}
		return printGridResult(cmd, res.Task, res.Filled)
	},
}

var gridFillCmd = &cobra.Command{
	Use:   "fill [task] [count]",
	Short: "Set the grid to its first count cells",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, err := resolveTask(ctx, args[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid count %q", args[1])
		}
		if _, err := app.tasks.FillGrid(ctx, task.ID, n); err != nil {
			return fmt.Errorf("failed to fill grid: %w", err)
		}
		return printProgress(cmd, task.ID)
	},
}

var gridResizeCmd = &cobra.Command{
	Use:   "resize [task] [size]",
	Short: "Change the number of cells",
	Long: `Change the number of cells. Shrinking drops filled cells past the new
size and unlinks subtasks bound to them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, err := resolveTask(ctx, args[0])
		if err != nil {
			return err
		}
		size, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid size %q", args[1])
		}
		if _, err := app.tasks.ResizeGrid(ctx, task.ID, size); err != nil {
			return fmt.Errorf("failed to resize grid: %w", err)
		}
		return printProgress(cmd, task.ID)
	},
}

var gridEstimateCmd = &cobra.Command{
	Use:   "estimate [task] [minutes]",
	Short: "Set the estimated focus minutes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, err := resolveTask(ctx, args[0])
		if err != nil {
			return err
		}
		m, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid minutes %q", args[1])
		}
		if _, err := app.tasks.SetEstimate(ctx, task.ID, m); err != nil {
			return fmt.Errorf("failed to set estimate: %w", err)
		}
		return printProgress(cmd, task.ID)
	},
}

func init() {
	gridCmd.AddCommand(gridToggleCmd, gridFillCmd, gridResizeCmd, gridEstimateCmd)
	rootCmd.AddCommand(gridCmd)
}

func printProgress(cmd *cobra.Command, taskID string) error {
	p, err := app.tasks.Progress(context.Background(), taskID)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	return printGridResult(cmd, p.Task, grid.NewIndexSet(p.FilledIndices...))
}

func printGridResult(cmd *cobra.Command, task *domain.Task, filled grid.IndexSet) error {
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), taskJSON(task, filled.Sorted()))
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d/%d (%d%%)\n", task.Name, task.ProgressGridFilled, task.ProgressGridSize, grid.Percentage(task))
	printGrid(out, task, filled)
	return nil
}
