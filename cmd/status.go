package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/adapters/tui"
	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/services"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long:  `Display the persisted timer state, the active task and today's totals.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		state, task, err := app.state.GetTimerState(ctx)
		if err != nil {
			return fmt.Errorf("failed to get timer state: %w", err)
		}
		today, err := app.history.Daily(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to get today's stats: %w", err)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), statusJSON(state, task, today))
		}

		out := cmd.OutOrStdout()
		tui.ShowStatus(out, state, task)
		printToday(out, today)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusJSON(state *domain.TimerState, task *domain.Task, today *services.DailyStats) map[string]any {
	result := map[string]any{
		"timer":       nil,
		"active_task": nil,
		"today_stats": map[string]any{
			"focus_sessions": today.FocusSessions,
			"break_sessions": today.BreakSessions,
			"focus_time":     today.FocusTime.Round(time.Second).String(),
			"cells_filled":   today.CellsFilled,
		},
	}

	if state != nil {
		timerData := map[string]any{
			"phase":       string(state.Phase),
			"seconds":     state.Seconds,
			"break_bonus": state.BreakBonus,
		}
		if state.HasOpenSession() {
			timerData["session_started_at"] = state.CurrentSessionStartTime.Format("2006-01-02T15:04:05")
			timerData["elapsed_seconds"] = state.ElapsedSeconds()
			timerData["grid_at_start"] = state.SessionStartProgress
		}
		result["timer"] = timerData
	}
	if task != nil {
		result["active_task"] = taskJSON(task, nil)
	}
	return result
}

func printToday(w io.Writer, today *services.DailyStats) {
	fmt.Fprintf(w, "\nToday:\n")
	fmt.Fprintf(w, "   Focus sessions: %d (%s)\n", today.FocusSessions, formatMinutes(today.FocusTime))
	fmt.Fprintf(w, "   Breaks: %d\n", today.BreakSessions)
	fmt.Fprintf(w, "   Cells filled: %d\n", today.CellsFilled)
}
