package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/services"
)

var (
	addEstimate float64
	addGrid     int
	addSubtasks []string
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new task",
	Long: `Create a new task with a progress grid. The grid size defaults to
grid.default_size from the config file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		size := addGrid
		if size == 0 {
			size = app.config.Grid.DefaultSize
		}

		task, err := app.tasks.AddTask(ctx, services.AddTaskRequest{
			Name:             strings.Join(args, " "),
			EstimatedMinutes: addEstimate,
			GridSize:         size,
			Subtasks:         addSubtasks,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), taskJSON(task, nil))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task created: %s (ID: %s)\n", task.Name, shortID(task.ID))
		fmt.Fprintf(out, "   Grid: %d cells\n", task.ProgressGridSize)
		if task.EstimatedMinutes > 0 {
			fmt.Fprintf(out, "   Estimate: %s\n", formatMinutes(minutes(task.EstimatedMinutes)))
		}
		for i, st := range task.Subtasks {
			fmt.Fprintf(out, "   %d. %s\n", i+1, st.Title)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().Float64VarP(&addEstimate, "estimate", "e", 0, "Estimated minutes of focus")
	addCmd.Flags().IntVarP(&addGrid, "grid", "g", 0, "Number of cells in the progress grid")
	addCmd.Flags().StringArrayVarP(&addSubtasks, "subtask", "s", nil, "Subtask title (repeatable)")
	rootCmd.AddCommand(addCmd)
}
