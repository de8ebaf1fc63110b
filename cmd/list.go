package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
	"github.com/xvierd/flow-grid/internal/services"
)

var listAll bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long:  `List open tasks with their grid progress. Use --all to include completed tasks.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		tasks, err := app.tasks.ListTasks(ctx, services.ListTasksRequest{IncludeCompleted: listAll})
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		if jsonOutput {
			taskList := make([]map[string]any, 0, len(tasks))
			for _, task := range tasks {
				taskList = append(taskList, taskJSON(task, nil))
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"tasks": taskList,
				"count": len(taskList),
			})
		}

		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		fmt.Fprintf(out, "Tasks (%d):\n\n", len(tasks))
		for _, task := range tasks {
			fmt.Fprintf(out, "%s %s (ID: %s)\n", statusIcon(task), task.Name, shortID(task.ID))
			fmt.Fprintf(out, "   %d/%d cells (%d%%)", task.ProgressGridFilled, task.ProgressGridSize, grid.Percentage(task))
			if task.EstimatedMinutes > 0 {
				fmt.Fprintf(out, "  %s of %s", formatMinutes(minutes(task.SpentMinutes)), formatMinutes(minutes(task.EstimatedMinutes)))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include completed tasks")
	rootCmd.AddCommand(listCmd)
}

func statusIcon(task *domain.Task) string {
	switch {
	case task.Completed:
		return "[x]"
	case task.ProgressGridFilled > 0:
		return "[~]"
	default:
		return "[ ]"
	}
}

func shortID(id string) string {
	return domain.ShortID(id)
}

// taskJSON is the JSON shape of a task shared by the task commands. filled
// is included when known.
func taskJSON(task *domain.Task, filled []int) map[string]any {
	subtasks := make([]map[string]any, 0, len(task.Subtasks))
	for _, st := range task.Subtasks {
		entry := map[string]any{
			"id":        st.ID,
			"title":     st.Title,
			"completed": st.Completed,
		}
		if st.Linked() {
			entry["cell"] = *st.ProgressGridIndex
		}
		subtasks = append(subtasks, entry)
	}

	data := map[string]any{
		"id":                task.ID,
		"name":              task.Name,
		"estimated_minutes": task.EstimatedMinutes,
		"spent_minutes":     task.SpentMinutes,
		"grid_size":         task.ProgressGridSize,
		"grid_filled":       task.ProgressGridFilled,
		"percentage":        grid.Percentage(task),
		"completed":         task.Completed,
		"subtasks":          subtasks,
		"created_at":        task.CreatedAt.Format("2006-01-02T15:04:05"),
	}
	if filled != nil {
		data["filled_indices"] = filled
	}
	return data
}
