package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
)

// terminalWidth returns the current terminal width, defaulting to 80.
func terminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w < 20 {
		return 80
	}
	return w
}

// Run shows the model and blocks until the user quits or ctx is cancelled.
// Inline mode renders below the prompt instead of taking the alternate screen.
func Run(ctx context.Context, m Model, inline bool) error {
	m.inline = inline
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !inline {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(m, opts...)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// ShowStatus prints the persisted timer state without starting interactive mode.
func ShowStatus(w io.Writer, state *domain.TimerState, task *domain.Task) {
	if state == nil {
		fmt.Fprintln(w, "Timer has not been started yet.")
		return
	}

	fmt.Fprintf(w, "%s: %s remaining\n", state.Phase.Label(), formatSeconds(state.Seconds))
	if state.BreakBonus > 0 {
		fmt.Fprintf(w, "   Break bonus: %s\n", formatSeconds(state.BreakBonus))
	}
	if state.HasOpenSession() {
		fmt.Fprintf(w, "   Open session since %s (%s elapsed)\n",
			state.CurrentSessionStartTime.Format("15:04"),
			formatSeconds(state.ElapsedSeconds()))
		fmt.Fprintf(w, "   Grid at start: %d cells\n", state.SessionStartProgress)
	}

	if task == nil {
		fmt.Fprintln(w, "\nNo active task.")
		return
	}
	fmt.Fprintf(w, "\nActive task: %s (%s)\n", task.Name, domain.ShortID(task.ID))
	fmt.Fprintf(w, "   Grid: %d/%d (%d%%)\n", task.ProgressGridFilled, task.ProgressGridSize, grid.Percentage(task))
	spent := time.Duration(task.SpentMinutes * float64(time.Minute)).Round(time.Second)
	if task.EstimatedMinutes > 0 {
		fmt.Fprintf(w, "   Time: %s of %.0fm\n", spent, task.EstimatedMinutes)
	} else {
		fmt.Fprintf(w, "   Time: %s\n", spent)
	}
}
