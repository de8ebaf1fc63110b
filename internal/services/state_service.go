package services

import (
	"context"
	"errors"
	"time"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// StateService implements the MCPStateProvider interface.
type StateService struct {
	storage ports.Storage
	tasks   *TaskService
	history *HistoryService
}

// NewStateService creates a new state service.
func NewStateService(storage ports.Storage, tasks *TaskService, history *HistoryService) *StateService {
	return &StateService{storage: storage, tasks: tasks, history: history}
}

// GetTimerState implements ports.MCPStateProvider.
func (s *StateService) GetTimerState(ctx context.Context) (*domain.TimerState, *domain.Task, error) {
	state, err := s.storage.Timer().Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if state == nil || state.ActiveTaskID == "" {
		return state, nil, nil
	}

	task, err := s.tasks.GetTask(ctx, state.ActiveTaskID)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return state, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return state, task, nil
}

// ListTasks implements ports.MCPStateProvider.
func (s *StateService) ListTasks(ctx context.Context, includeCompleted bool) ([]*domain.Task, error) {
	return s.tasks.ListTasks(ctx, ListTasksRequest{IncludeCompleted: includeCompleted})
}

// GetTaskProgress implements ports.MCPStateProvider.
func (s *StateService) GetTaskProgress(ctx context.Context, taskID string) (*ports.TaskProgress, error) {
	return s.tasks.Progress(ctx, taskID)
}

// GetTaskHistory implements ports.MCPStateProvider.
func (s *StateService) GetTaskHistory(ctx context.Context, taskID string) ([]*domain.Session, error) {
	return s.history.ForTask(ctx, taskID)
}

// GetRecentSessions implements ports.MCPStateProvider.
func (s *StateService) GetRecentSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	return s.history.Recent(ctx, time.Now().AddDate(0, 0, -7), limit)
}

// ToggleCell implements ports.MCPStateProvider.
func (s *StateService) ToggleCell(ctx context.Context, taskID string, index int) (*ports.TaskProgress, *domain.Subtask, error) {
	res, err := s.tasks.ToggleCell(ctx, taskID, index)
	if err != nil {
		return nil, nil, err
	}
	progress, err := s.tasks.progressOf(ctx, res.Task)
	if err != nil {
		return nil, nil, err
	}
	return progress, res.Linked, nil
}

// SetSubtaskCompleted implements ports.MCPStateProvider.
func (s *StateService) SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) (*ports.TaskProgress, error) {
	task, err := s.tasks.SetSubtaskCompleted(ctx, taskID, subtaskID, completed)
	if err != nil {
		return nil, err
	}
	return s.tasks.progressOf(ctx, task)
}

// DescribeSession implements ports.MCPStateProvider.
func (s *StateService) DescribeSession(ctx context.Context, sessionID, description string) (*domain.Session, error) {
	return s.history.Describe(ctx, sessionID, description)
}

// Ensure StateService implements MCPStateProvider.
var _ ports.MCPStateProvider = (*StateService)(nil)
