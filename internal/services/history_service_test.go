package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/timer"
)

func TestHistoryService(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	history := NewHistoryService(store)
	task, _ := domain.NewTask("History", 50, 10)

	focus := domain.NewSession(task, domain.PhaseFocus, 25, 0, 3)
	brk := domain.NewSession(task, domain.PhaseBreak, 5, 3, 3)
	old := domain.NewSession(task, domain.PhaseFocus, 25, 3, 4)
	old.DateEnded = time.Now().AddDate(0, 0, -3)
	for _, s := range []*domain.Session{old, focus, brk} {
		require.NoError(t, store.Sessions().Save(ctx, s))
	}

	t.Run("recent honours limit", func(t *testing.T) {
		all, err := history.Recent(ctx, time.Time{}, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		limited, err := history.Recent(ctx, time.Time{}, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
		assert.Equal(t, brk.ID, limited[0].ID)
	})

	t.Run("describe", func(t *testing.T) {
		described, err := history.Describe(ctx, focus.ID, "  drafted intro  ")
		require.NoError(t, err)
		assert.Equal(t, "drafted intro", described.Description)

		stored, _ := store.Sessions().FindByID(ctx, focus.ID)
		assert.Equal(t, "drafted intro", stored.Description)
		assert.Equal(t, 25.0, stored.Duration)
	})

	t.Run("daily totals", func(t *testing.T) {
		stats, err := history.Daily(ctx, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.FocusSessions)
		assert.Equal(t, 1, stats.BreakSessions)
		assert.Equal(t, 25*time.Minute, stats.FocusTime)
		assert.Equal(t, 5*time.Minute, stats.BreakTime)
		assert.Equal(t, 3, stats.CellsFilled)
	})

	t.Run("soft delete hides the session", func(t *testing.T) {
		require.NoError(t, history.Delete(ctx, focus.ID))

		sessions, _ := history.ForTask(ctx, task.ID)
		assert.Len(t, sessions, 2)

		stats, _ := history.Daily(ctx, time.Now())
		assert.Equal(t, 0, stats.FocusSessions)

		_, err := store.Sessions().FindByID(ctx, focus.ID)
		assert.NoError(t, err, "soft-deleted sessions stay addressable")
	})

	t.Run("missing session", func(t *testing.T) {
		err := history.Delete(ctx, "missing")
		assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
	})
}

func TestStateService(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	tasks := NewTaskService(store)
	history := NewHistoryService(store)
	state := NewStateService(store, tasks, history)

	t.Run("no timer yet", func(t *testing.T) {
		ts, task, err := state.GetTimerState(ctx)
		require.NoError(t, err)
		assert.Nil(t, ts)
		assert.Nil(t, task)
	})

	task, _ := tasks.AddTask(ctx, AddTaskRequest{Name: "Agent task", GridSize: 4, Subtasks: []string{"cell two"}})
	subID := task.Subtasks[0].ID
	_, err := tasks.LinkSubtask(ctx, task.ID, subID, 2)
	require.NoError(t, err)

	engine, err := NewTimer(ctx, timer.DefaultConfig(), store, tasks, TimerOptions{})
	require.NoError(t, err)
	require.NoError(t, engine.SelectTask(ctx, task.ID))

	t.Run("timer state with active task", func(t *testing.T) {
		ts, active, err := state.GetTimerState(ctx)
		require.NoError(t, err)
		require.NotNil(t, ts)
		require.NotNil(t, active)
		assert.Equal(t, task.ID, active.ID)
		assert.Equal(t, 1500, ts.Seconds)
	})

	t.Run("toggle unlinked cell", func(t *testing.T) {
		progress, linked, err := state.ToggleCell(ctx, task.ID, 0)
		require.NoError(t, err)
		assert.Nil(t, linked)
		assert.Equal(t, []int{0}, progress.FilledIndices)
		assert.Equal(t, 25, progress.Percentage)
	})

	t.Run("toggle linked cell surfaces subtask", func(t *testing.T) {
		progress, linked, err := state.ToggleCell(ctx, task.ID, 2)
		require.NoError(t, err)
		require.NotNil(t, linked)
		assert.Equal(t, subID, linked.ID)
		assert.Equal(t, []int{0}, progress.FilledIndices)
	})

	t.Run("complete linked subtask", func(t *testing.T) {
		progress, err := state.SetSubtaskCompleted(ctx, task.ID, subID, true)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, progress.FilledIndices)
		assert.Equal(t, 2, progress.Task.ProgressGridFilled)
	})

	t.Run("list and progress", func(t *testing.T) {
		list, err := state.ListTasks(ctx, false)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		progress, err := state.GetTaskProgress(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, progress.Percentage)
	})

	t.Run("history and describe", func(t *testing.T) {
		s := domain.NewSession(task, domain.PhaseFocus, 30, 0, 2)
		require.NoError(t, store.Sessions().Save(ctx, s))

		recent, err := state.GetRecentSessions(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, recent, 1)

		described, err := state.DescribeSession(ctx, s.ID, "agent note")
		require.NoError(t, err)
		assert.Equal(t, "agent note", described.Description)

		perTask, err := state.GetTaskHistory(ctx, task.ID)
		require.NoError(t, err)
		assert.Len(t, perTask, 1)
	})

	t.Run("active task deleted", func(t *testing.T) {
		require.NoError(t, tasks.DeleteTask(ctx, task.ID))
		ts, active, err := state.GetTimerState(ctx)
		require.NoError(t, err)
		assert.NotNil(t, ts)
		assert.Nil(t, active)
	})
}
