package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/xvierd/flow-grid/internal/config"
	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
)

// PickerResult holds the outcome of a picker interaction.
type PickerResult struct {
	Task    *domain.Task
	Aborted bool
}

type pickerModel struct {
	tasks   []*domain.Task
	filter  textinput.Model
	matches []int
	cursor  int
	chosen  bool
	aborted bool
	theme   config.ThemeConfig
}

func newPicker(tasks []*domain.Task, theme *config.ThemeConfig) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.CharLimit = 80
	ti.Width = 40
	ti.Focus()

	return pickerModel{
		tasks:   tasks,
		filter:  ti,
		matches: filterTasks("", tasks),
		theme:   resolveTheme(theme),
	}
}

// filterTasks returns the indices of tasks whose names match query, best
// match first. An empty query keeps every task in order.
func filterTasks(query string, tasks []*domain.Task) []int {
	if strings.TrimSpace(query) == "" {
		all := make([]int, len(tasks))
		for i := range tasks {
			all[i] = i
		}
		return all
	}

	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	found := fuzzy.Find(query, names)
	out := make([]int, len(found))
	for i, match := range found {
		out[i] = match.Index
	}
	return out
}

func (m pickerModel) selected() *domain.Task {
	if m.cursor < 0 || m.cursor >= len(m.matches) {
		return nil
	}
	return m.tasks[m.matches[m.cursor]]
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if m.selected() == nil {
				return m, nil
			}
			m.chosen = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.matches = filterTasks(m.filter.Value(), m.tasks)
		m.cursor = 0
	}
	return m, cmd
}

func (m pickerModel) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorFocus)).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("  Select a task") + " " + m.filter.View() + "\n\n")

	if len(m.matches) == 0 {
		b.WriteString(dimStyle.Render("    no matching tasks") + "\n")
	}
	for i, idx := range m.matches {
		t := m.tasks[idx]
		line := fmt.Sprintf("%-30s %3d%%  %s", t.Name, grid.Percentage(t), domain.ShortID(t.ID))
		if i == m.cursor {
			b.WriteString("  " + activeStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(dimStyle.Render("    "+line) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  ↑/↓ navigate · enter select · esc cancel") + "\n")
	return b.String()
}

// RunTaskPicker launches an interactive task picker.
func RunTaskPicker(tasks []*domain.Task, theme *config.ThemeConfig) (PickerResult, error) {
	p := tea.NewProgram(newPicker(tasks, theme))
	result, err := p.Run()
	if err != nil {
		return PickerResult{Aborted: true}, fmt.Errorf("failed to run task picker: %w", err)
	}

	final := result.(pickerModel)
	if final.aborted || !final.chosen {
		return PickerResult{Aborted: true}, nil
	}
	return PickerResult{Task: final.selected()}, nil
}
