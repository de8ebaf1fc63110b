package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select [task]",
	Short: "Choose the task the timer works on",
	Long: `Make a task the timer's active task. Without an argument an
interactive picker is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		engine, err := newEngine(ctx)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			if err := pickActiveTask(ctx, engine); err != nil {
				return err
			}
		} else {
			task, err := resolveTask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := engine.SelectTask(ctx, task.ID); err != nil {
				return fmt.Errorf("failed to select task: %w", err)
			}
		}

		task, err := engine.ActiveTask(ctx)
		if err != nil {
			return fmt.Errorf("failed to load active task: %w", err)
		}
		if jsonOutput {
			if task == nil {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"active_task": nil})
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"active_task": taskJSON(task, nil)})
		}
		if task == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No task selected.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active task: %s (ID: %s)\n", task.Name, shortID(task.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
