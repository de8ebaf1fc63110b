package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// completeCmd represents the complete command
var completeCmd = &cobra.Command{
	Use:   "complete [task]",
	Short: "Complete a task",
	Long:  `Mark a task as completed. Completed tasks are hidden from list unless --all is given.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		task, err := resolveTask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		task, err = app.tasks.CompleteTask(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), taskJSON(task, nil))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task completed: %s (ID: %s)\n", task.Name, shortID(task.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
}
