package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [task]",
	Short: "Delete a task",
	Long: `Delete a task. Its recorded sessions stay in the history.
Use with caution - this cannot be undone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		task, err := resolveTask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		if !deleteYes && !jsonOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete task '%s' (%s)? [y/N]: ", task.Name, shortID(task.ID))
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.TrimSpace(answer); a != "y" && a != "Y" {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
				return nil
			}
		}

		if err := app.tasks.DeleteTask(ctx, task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"deleted": true, "task_id": task.ID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task '%s' deleted.\n", task.Name)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}
