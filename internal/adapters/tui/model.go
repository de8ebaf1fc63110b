// Package tui provides the terminal user interface implementation
// using the Bubbletea framework: the countdown, the active task's progress
// grid and the start, end and rewind dialogs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/flow-grid/internal/config"
	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
	"github.com/xvierd/flow-grid/internal/ports"
	"github.com/xvierd/flow-grid/internal/timer"
)

// Tasks is the part of the task service the view drives.
type Tasks interface {
	Progress(ctx context.Context, taskID string) (*ports.TaskProgress, error)
	ToggleCell(ctx context.Context, taskID string, index int) (grid.ToggleResult, error)
	SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) (*domain.Task, error)
}

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// tickMsg is sent on every timer tick.
type tickMsg time.Time

// notices collects engine callbacks between updates. It is shared by every
// copy of the model.
type notices struct {
	celebrated bool
}

// maxColumns is the widest grid row.
const maxColumns = 10

// Model represents the TUI state.
type Model struct {
	ctx    context.Context
	engine *timer.Engine
	tasks  Tasks
	theme  config.ThemeConfig

	progress progress.Model
	width    int
	height   int

	task   *domain.Task
	filled grid.IndexSet
	cursor int

	inline bool

	// ticking is set while a tickMsg is in flight.
	ticking bool
	notes   *notices
	message string
	err     error
}

// NewModel creates a new TUI model over the engine. The engine's listener is
// replaced so the model can observe estimate celebrations.
func NewModel(ctx context.Context, engine *timer.Engine, tasks Tasks, theme *config.ThemeConfig) Model {
	notes := &notices{}
	engine.SetListener(timer.Listener{
		OnTaskComplete: func(string) { notes.celebrated = true },
	})

	m := Model{
		ctx:      ctx,
		engine:   engine,
		tasks:    tasks,
		theme:    resolveTheme(theme),
		progress: progress.New(progress.WithDefaultGradient()),
		width:    terminalWidth(),
		notes:    notes,
		ticking:  engine.Running(),
	}
	m.refresh()
	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	if m.ticking {
		return tickCmd()
	}
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-4, 60)
		return m, nil

	case tickMsg:
		m.ticking = false
		if !m.engine.Running() {
			return m, nil
		}
		m.fail(m.engine.Tick(m.ctx))
		if m.notes.celebrated {
			m.notes.celebrated = false
			m.message = "Estimate reached: your next break is longer"
		}
		m.refresh()
		return m, m.arm()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	status := m.engine.Status()
	key := msg.String()

	if key == "ctrl+c" || (key == "q" && !status.Gated()) {
		return m, tea.Quit
	}

	m.message = ""
	m.err = nil
	if m.moveCursor(key) {
		return m, nil
	}

	switch status.Mode {
	case timer.ModeAwaitingStart:
		switch key {
		case "enter":
			m.fail(m.engine.ConfirmStart(m.ctx))
		case "esc":
			m.fail(m.engine.CancelStart())
		case "t":
			m.toggle()
		case "c":
			m.completeLinked()
		}

	case timer.ModeAwaitingEnd:
		switch key {
		case "enter":
			m.fail(m.engine.ResolveEnd(m.ctx, m.filled.Len()))
		case "esc":
			m.fail(m.engine.CancelEnd(m.ctx))
		case "t":
			m.toggle()
		case "c":
			m.completeLinked()
		}

	case timer.ModeAwaitingRewind:
		switch key {
		case "y", "enter":
			m.fail(m.engine.Rewind(m.ctx))
		case "n":
			m.fail(m.engine.ContinueWithoutRewind(m.ctx))
		}

	default:
		switch key {
		case " ":
			if m.engine.Running() {
				m.fail(m.engine.Pause(m.ctx))
			} else {
				m.fail(m.engine.Start(m.ctx))
			}
		case "s":
			m.fail(m.engine.Skip(m.ctx))
		case "r":
			m.fail(m.engine.Reset(m.ctx))
		case "t", "enter":
			m.toggle()
		case "c":
			m.completeLinked()
		}
	}

	m.refresh()
	return m, m.arm()
}

// arm schedules the next tick when the engine runs and none is pending.
func (m *Model) arm() tea.Cmd {
	if m.ticking || !m.engine.Running() {
		return nil
	}
	m.ticking = true
	return tickCmd()
}

func (m *Model) moveCursor(key string) bool {
	if m.task == nil {
		return false
	}
	size := m.task.ProgressGridSize
	cols := columns(size)
	switch key {
	case "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.cursor < size-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor-cols >= 0 {
			m.cursor -= cols
		}
	case "down", "j":
		if m.cursor+cols < size {
			m.cursor += cols
		}
	default:
		return false
	}
	return true
}

func (m *Model) toggle() {
	if m.task == nil {
		m.message = "Select a task first"
		return
	}
	res, err := m.tasks.ToggleCell(m.ctx, m.task.ID, m.cursor)
	if err != nil {
		m.fail(err)
		return
	}
	if res.Linked != nil {
		m.message = fmt.Sprintf("Cell %d belongs to %q: press c to complete it", m.cursor+1, res.Linked.Title)
	}
}

func (m *Model) completeLinked() {
	if m.task == nil {
		return
	}
	st, ok := grid.LinkedSubtask(m.task, m.cursor)
	if !ok {
		m.message = "No subtask is linked to this cell"
		return
	}
	_, err := m.tasks.SetSubtaskCompleted(m.ctx, m.task.ID, st.ID, !st.Completed)
	m.fail(err)
}

// refresh reloads the active task and its filled cells.
func (m *Model) refresh() {
	id := m.engine.ActiveTaskID()
	if id == "" {
		m.task, m.filled = nil, nil
		return
	}

	p, err := m.tasks.Progress(m.ctx, id)
	if errors.Is(err, domain.ErrTaskNotFound) {
		m.task, m.filled = nil, nil
		return
	}
	if err != nil {
		m.fail(err)
		return
	}

	m.task = p.Task
	m.filled = grid.NewIndexSet(p.FilledIndices...)
	if m.cursor >= p.Task.ProgressGridSize {
		m.cursor = p.Task.ProgressGridSize - 1
	}
}

func (m *Model) fail(err error) {
	if err == nil {
		return
	}
	m.err = err
	log.Printf("tui: %v", err)
}

// columns is the row width of a grid with size cells.
func columns(size int) int {
	if size < maxColumns {
		return max(size, 1)
	}
	return maxColumns
}

// tickCmd creates a command that sends a tick message.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// formatSeconds formats a countdown as MM:SS.
func formatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
