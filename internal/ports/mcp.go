package ports

import (
	"context"

	"github.com/xvierd/flow-grid/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// TaskProgress is a task together with its enumerated grid cells.
type TaskProgress struct {
	Task          *domain.Task
	FilledIndices []int
	Percentage    int
}

// MCPStateProvider provides state information to the MCP server.
// This is a driven port (implemented by services layer).
type MCPStateProvider interface {
	// GetTimerState returns the persisted timer state and its active task, if any.
	GetTimerState(ctx context.Context) (*domain.TimerState, *domain.Task, error)

	// ListTasks returns tasks, optionally including completed ones.
	ListTasks(ctx context.Context, includeCompleted bool) ([]*domain.Task, error)

	// GetTaskProgress returns a task's grid state.
	GetTaskProgress(ctx context.Context, taskID string) (*TaskProgress, error)

	// GetTaskHistory returns session history for a specific task.
	GetTaskHistory(ctx context.Context, taskID string) ([]*domain.Session, error)

	// GetRecentSessions returns recent sessions.
	GetRecentSessions(ctx context.Context, limit int) ([]*domain.Session, error)

	// ToggleCell toggles an unlinked grid cell. Linked cells are reported
	// back through the returned subtask without changing state.
	ToggleCell(ctx context.Context, taskID string, index int) (*TaskProgress, *domain.Subtask, error)

	// SetSubtaskCompleted completes or uncompletes a linked subtask.
	SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) (*TaskProgress, error)

	// DescribeSession sets the free-form description of a session.
	DescribeSession(ctx context.Context, sessionID, description string) (*domain.Session, error)
}
