package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
	"github.com/xvierd/flow-grid/internal/timer"
)

// View renders the model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	state := m.engine.State()
	status := m.engine.Status()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	var sections []string
	sections = append(sections, titleStyle.Render("flow-grid"))

	if m.task != nil {
		taskStyle := lipgloss.NewStyle().Bold(true)
		sections = append(sections, taskStyle.Render(m.task.Name))
		sections = append(sections, helpStyle.Render(m.timeLine()))
	} else {
		sections = append(sections, helpStyle.Render("No task selected (flow-grid select <task>)"))
	}

	sections = append(sections, "", m.phaseLine(state, status))
	sections = append(sections, renderBigTime(formatSeconds(state.Seconds), m.timerColor(state, status), m.width))
	sections = append(sections, "", m.progress.ViewAs(m.phaseProgress(state)))

	if m.task != nil {
		sections = append(sections, "", m.viewGrid())
		if line := m.cursorLine(); line != "" {
			sections = append(sections, helpStyle.Render(line))
		}
	}

	sections = append(sections, "")
	sections = append(sections, m.viewDialog(status)...)

	if m.message != "" {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.CellLinked)).Render(m.message))
	}
	if m.err != nil {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Render("Error: "+m.err.Error()))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if m.inline || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) timeLine() string {
	line := fmt.Sprintf("%.1f min spent", m.task.SpentMinutes)
	if m.task.EstimatedMinutes > 0 {
		line = fmt.Sprintf("%.1f / %.0f min", m.task.SpentMinutes, m.task.EstimatedMinutes)
	}
	return fmt.Sprintf("%s  ·  %d%% done", line, grid.Percentage(m.task))
}

func (m Model) phaseLine(state domain.TimerState, status timer.Status) string {
	label := state.Phase.Label()
	switch {
	case status.Mode == timer.ModeRunning:
		label += " · running"
	case status.Gated():
		label += " · waiting"
	default:
		label += " · stopped"
	}
	if state.Phase == domain.PhaseBreak && state.BreakBonus > 0 {
		label += fmt.Sprintf(" (+%s bonus)", formatSeconds(state.BreakBonus))
	} else if state.BreakBonus > 0 {
		label += fmt.Sprintf(" (next break +%s)", formatSeconds(state.BreakBonus))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorPaused)).Render(label)
}

func (m Model) timerColor(state domain.TimerState, status timer.Status) lipgloss.Color {
	if status.Mode != timer.ModeRunning {
		return lipgloss.Color(m.theme.ColorPaused)
	}
	if state.Phase == domain.PhaseBreak {
		return lipgloss.Color(m.theme.ColorBreak)
	}
	return lipgloss.Color(m.theme.ColorFocus)
}

// phaseProgress is the share of the current phase already consumed.
func (m Model) phaseProgress(state domain.TimerState) float64 {
	cfg := m.engine.Config()
	total := cfg.FocusSeconds
	if state.Phase == domain.PhaseBreak {
		total = cfg.BreakSeconds + state.BreakBonus
	}
	if total <= 0 {
		return 0
	}
	done := 1 - float64(state.Seconds)/float64(total)
	return min(max(done, 0), 1)
}

func (m Model) viewGrid() string {
	size := m.task.ProgressGridSize
	cols := columns(size)

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.CellFilled))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.CellEmpty))
	linkedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.CellLinked))

	var rows []string
	var row []string
	for i := 0; i < size; i++ {
		_, linked := grid.LinkedSubtask(m.task, i)
		filled := m.filled.Has(i)

		glyph, style := "□", emptyStyle
		switch {
		case linked && filled:
			glyph, style = "◆", linkedStyle
		case linked:
			glyph, style = "◇", linkedStyle
		case filled:
			glyph, style = "■", filledStyle
		}
		if i == m.cursor {
			style = style.Reverse(true)
		}
		row = append(row, style.Render(glyph))

		if len(row) == cols || i == size-1 {
			rows = append(rows, strings.Join(row, " "))
			row = nil
		}
	}
	return strings.Join(rows, "\n")
}

func (m Model) cursorLine() string {
	st, ok := grid.LinkedSubtask(m.task, m.cursor)
	if !ok {
		return fmt.Sprintf("cell %d of %d", m.cursor+1, m.task.ProgressGridSize)
	}
	mark := " "
	if st.Completed {
		mark = "x"
	}
	return fmt.Sprintf("cell %d: [%s] %s", m.cursor+1, mark, st.Title)
}

func (m Model) viewDialog(status timer.Status) []string {
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	promptStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorFocus))

	switch status.Mode {
	case timer.ModeAwaitingStart:
		return []string{
			promptStyle.Render("Check the grid before you start"),
			helpStyle.Render("[t]oggle cell  [c]omplete subtask  [enter] start  [esc] cancel"),
		}

	case timer.ModeAwaitingEnd:
		prompt := "Session stopped. Mark what you finished"
		back := "[esc] resume"
		if status.Natural {
			prompt = "Time is up. Mark what you finished"
			back = "[esc] record as is"
		}
		total := 0
		if m.task != nil {
			total = m.task.ProgressGridSize
		}
		return []string{
			promptStyle.Render(prompt),
			helpStyle.Render(fmt.Sprintf("%d of %d cells filled", m.filled.Len(), total)),
			helpStyle.Render("[t]oggle cell  [c]omplete subtask  [enter] record  " + back),
		}

	case timer.ModeAwaitingRewind:
		return []string{
			promptStyle.Render(fmt.Sprintf("Only %.1f min. Rewind this session?", status.Duration)),
			helpStyle.Render("[y] rewind  [n] keep it"),
		}
	}

	start := "[space] start"
	if status.Mode == timer.ModeRunning {
		start = "[space] stop"
	}
	return []string{
		helpStyle.Render(start + "  [s]kip  [r]eset  [t]oggle cell  [c]omplete subtask  [q]uit"),
	}
}
