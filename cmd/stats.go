package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xvierd/flow-grid/internal/services"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show focus time per day",
	Long:  `Display a small dashboard of focus minutes and filled cells for the last days.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if statsDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}

		days, err := dailyRange(ctx, time.Now(), statsDays)
		if err != nil {
			return err
		}

		if jsonOutput {
			list := make([]map[string]any, 0, len(days))
			for _, d := range days {
				list = append(list, map[string]any{
					"date":           d.Date.Format("2006-01-02"),
					"focus_sessions": d.FocusSessions,
					"break_sessions": d.BreakSessions,
					"focus_minutes":  math.Round(d.FocusTime.Minutes()*10) / 10,
					"cells_filled":   d.CellsFilled,
				})
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"days": list})
		}

		renderDashboard(cmd.OutOrStdout(), days)
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 7, "Number of days to show, ending today")
	rootCmd.AddCommand(statsCmd)
}

// dailyRange returns n days of stats, oldest first, ending on until's date.
func dailyRange(ctx context.Context, until time.Time, n int) ([]*services.DailyStats, error) {
	days := make([]*services.DailyStats, 0, n)
	for i := n - 1; i >= 0; i-- {
		d, err := app.history.Daily(ctx, until.AddDate(0, 0, -i))
		if err != nil {
			return nil, fmt.Errorf("failed to get stats: %w", err)
		}
		days = append(days, d)
	}
	return days, nil
}

func renderDashboard(w io.Writer, days []*services.DailyStats) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	barColor := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C6FE0"))

	var total time.Duration
	var sessions, cells int
	var longest time.Duration
	for _, d := range days {
		total += d.FocusTime
		sessions += d.FocusSessions
		cells += d.CellsFilled
		longest = max(longest, d.FocusTime)
	}

	label := fmt.Sprintf("Last %d days", len(days))
	if len(days) == 1 {
		label = "Today"
	}
	fmt.Fprintf(w, "\n  %s\n", titleStyle.Render(label))
	fmt.Fprintf(w, "  %s\n\n", dimStyle.Render(strings.Repeat("─", 40)))

	fmt.Fprintf(w, "  Total: %s focus sessions, %s, %s cells filled\n\n",
		valueStyle.Render(fmt.Sprintf("%d", sessions)),
		valueStyle.Render(formatMinutes(total)),
		valueStyle.Render(fmt.Sprintf("%d", cells)),
	)

	if sessions == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No focus sessions in this period."))
		return
	}

	const maxBarWidth = 30
	for _, d := range days {
		width := 0
		if longest > 0 {
			width = int(math.Round(float64(d.FocusTime) / float64(longest) * maxBarWidth))
		}
		if width < 1 && d.FocusTime > 0 {
			width = 1
		}
		fmt.Fprintf(w, "  %s %s %s\n",
			dimStyle.Render(d.Date.Format("Mon Jan 02")),
			barColor.Render(fmt.Sprintf("%-*s", maxBarWidth, buildBar(width))),
			formatMinutes(d.FocusTime),
		)
	}
	fmt.Fprintln(w)
}

// buildBar creates a horizontal bar using block characters.
func buildBar(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("█", width)
}
