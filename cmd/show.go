package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [task]",
	Short: "Show a task with its grid and subtasks",
	Long: `Show a task's progress grid, subtasks and focus history.
The task can be given by ID, ID prefix, or name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		task, err := resolveTask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		progress, err := app.tasks.Progress(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to load progress: %w", err)
		}
		sessions, err := app.history.ForTask(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}

		if jsonOutput {
			data := taskJSON(progress.Task, progress.FilledIndices)
			data["sessions"] = len(sessions)
			return writeJSON(cmd.OutOrStdout(), data)
		}

		out := cmd.OutOrStdout()
		task = progress.Task
		fmt.Fprintf(out, "%s (ID: %s)\n", task.Name, shortID(task.ID))
		if task.Completed {
			fmt.Fprintln(out, "   Completed")
		}
		fmt.Fprintf(out, "   Grid: %d/%d (%d%%)\n", task.ProgressGridFilled, task.ProgressGridSize, progress.Percentage)
		if task.EstimatedMinutes > 0 {
			fmt.Fprintf(out, "   Time: %s of %s\n", formatMinutes(minutes(task.SpentMinutes)), formatMinutes(minutes(task.EstimatedMinutes)))
		} else {
			fmt.Fprintf(out, "   Time: %s\n", formatMinutes(minutes(task.SpentMinutes)))
		}

		fmt.Fprintln(out)
		printGrid(out, task, grid.NewIndexSet(progress.FilledIndices...))

		if len(task.Subtasks) > 0 {
			fmt.Fprintln(out, "\nSubtasks:")
			printSubtasks(out, task)
		}

		var focus int
		for _, s := range sessions {
			if s.IsFocus() {
				focus++
			}
		}
		fmt.Fprintf(out, "\n%d focus sessions recorded\n", focus)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

// printGrid writes the grid as rows of ten cells. Linked cells are drawn as
// diamonds.
func printGrid(w io.Writer, task *domain.Task, filled grid.IndexSet) {
	const cols = 10
	var row []string
	for i := 0; i < task.ProgressGridSize; i++ {
		_, linked := grid.LinkedSubtask(task, i)
		glyph := "□"
		switch {
		case linked && filled.Has(i):
			glyph = "◆"
		case linked:
			glyph = "◇"
		case filled.Has(i):
			glyph = "■"
		}
		row = append(row, glyph)
		if len(row) == cols || i == task.ProgressGridSize-1 {
			fmt.Fprintf(w, "   %s\n", strings.Join(row, " "))
			row = nil
		}
	}
}

func printSubtasks(w io.Writer, task *domain.Task) {
	for i, st := range task.Subtasks {
		mark := " "
		if st.Completed {
			mark = "x"
		}
		cell := ""
		if st.Linked() {
			cell = fmt.Sprintf("  (cell %d)", *st.ProgressGridIndex+1)
		}
		fmt.Fprintf(w, "   %d. [%s] %s%s\n", i+1, mark, st.Title, cell)
	}
}
