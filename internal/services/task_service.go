// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
	"github.com/xvierd/flow-grid/internal/ports"
)

// ErrAmbiguousTask is returned when a name matches several tasks equally.
var ErrAmbiguousTask = errors.New("task reference matches more than one task")

// TaskService handles task and progress grid use cases. It is also the
// TaskUpdater the grid controller and the timer write through.
type TaskService struct {
	storage ports.Storage
	grid    *grid.Controller
}

// NewTaskService creates a new task service.
func NewTaskService(storage ports.Storage) *TaskService {
	s := &TaskService{storage: storage}
	s.grid = grid.NewController(grid.NewStore(storage.KV()), s)
	return s
}

// Ensure TaskService implements ports.TaskUpdater.
var _ ports.TaskUpdater = (*TaskService)(nil)

// Grid returns the grid controller bound to this service.
func (s *TaskService) Grid() *grid.Controller {
	return s.grid
}

// UpdateTask replaces a stored task.
func (s *TaskService) UpdateTask(ctx context.Context, task *domain.Task) error {
	if err := s.storage.Tasks().Save(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// AddTaskRequest contains the data needed to create a new task.
type AddTaskRequest struct {
	Name             string
	EstimatedMinutes float64
	GridSize         int
	Subtasks         []string
}

// AddTask creates a new task, with optional unlinked subtasks.
func (s *TaskService) AddTask(ctx context.Context, req AddTaskRequest) (*domain.Task, error) {
	task, err := domain.NewTask(req.Name, req.EstimatedMinutes, req.GridSize)
	if err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	for _, title := range req.Subtasks {
		st, err := domain.NewSubtask(task.ID, title)
		if err != nil {
			return nil, fmt.Errorf("invalid subtask: %w", err)
		}
		task.AddSubtask(*st)
	}

	if err := s.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasksRequest contains filters for listing tasks.
type ListTasksRequest struct {
	IncludeCompleted bool
}

// ListTasks retrieves tasks based on filters.
func (s *TaskService) ListTasks(ctx context.Context, req ListTasksRequest) ([]*domain.Task, error) {
	return s.storage.Tasks().FindAll(ctx, req.IncludeCompleted)
}

// GetTask retrieves a single task by ID.
func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.storage.Tasks().FindByID(ctx, id)
}

// Resolve finds a task by exact ID, ID prefix, or fuzzy name match.
func (s *TaskService) Resolve(ctx context.Context, ref string) (*domain.Task, error) {
	if task, err := s.storage.Tasks().FindByID(ctx, ref); err == nil {
		return task, nil
	} else if !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, err
	}

	all, err := s.storage.Tasks().FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	var prefixed []*domain.Task
	for _, t := range all {
		if len(ref) >= 4 && strings.HasPrefix(t.ID, ref) {
			prefixed = append(prefixed, t)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
	default:
		return nil, ErrAmbiguousTask
	}

	matches, err := s.storage.Tasks().FindByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return matches[0], nil
}

// CompleteTask marks a task as completed.
func (s *TaskService) CompleteTask(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.storage.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	task.Complete()
	if err := s.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task and its filled-cell record. Recorded sessions
// are kept.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.storage.Tasks().Delete(ctx, id); err != nil {
		return err
	}
	if err := s.grid.Store().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete progress grid: %w", err)
	}
	return nil
}

// AddSubtask appends an unlinked subtask to a task.
func (s *TaskService) AddSubtask(ctx context.Context, taskID, title string) (*domain.Task, *domain.Subtask, error) {
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}
	st, err := domain.NewSubtask(task.ID, title)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid subtask: %w", err)
	}
	task.AddSubtask(*st)
	if err := s.UpdateTask(ctx, task); err != nil {
		return nil, nil, err
	}
	return task, st, nil
}

// LinkSubtask binds a subtask to a grid cell.
func (s *TaskService) LinkSubtask(ctx context.Context, taskID, subtaskID string, index int) (*domain.Task, error) {
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return s.grid.LinkSubtask(ctx, task, subtaskID, index)
}

// UnlinkSubtask removes a subtask's grid binding.
func (s *TaskService) UnlinkSubtask(ctx context.Context, taskID, subtaskID string) (*domain.Task, error) {
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return s.grid.UnlinkSubtask(ctx, task, subtaskID)
}

// SetSubtaskCompleted completes or reopens a subtask. Linked subtasks move
// their cell with them.
func (s *TaskService) SetSubtaskCompleted(ctx context.Context, taskID, subtaskID string, completed bool) (*domain.Task, error) {
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	st, err := task.FindSubtask(subtaskID)
	if err != nil {
		return nil, err
	}

	if st.Linked() {
		if completed {
			return s.grid.CompleteLinkedSubtask(ctx, task, subtaskID, *st.ProgressGridIndex)
		}
		return s.grid.UncompleteLinkedSubtask(ctx, task, subtaskID, *st.ProgressGridIndex)
	}

	st.Completed = completed
	task.Touch()
	if err := s.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleCell clicks a grid cell.
func (s *TaskService) ToggleCell(ctx context.Context, taskID string, index int) (grid.ToggleResult, error) {
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return grid.ToggleResult{}, fmt.Errorf("failed to find task: %w", err)
	}
	return s.grid.ToggleCell(ctx, task, index)
}

// ResizeGrid changes a task's grid size.
func (s *TaskService) ResizeGrid(ctx context.Context, taskID string, size int) (*domain.Task, error) {
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return s.grid.Resize(ctx, task, size)
}

// FillGrid sets the number of filled cells.
func (s *TaskService) FillGrid(ctx context.Context, taskID string, n int) (*domain.Task, error) {
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return s.grid.FillTo(ctx, task, n)
}

// SetEstimate changes a task's estimated minutes.
func (s *TaskService) SetEstimate(ctx context.Context, taskID string, minutes float64) (*domain.Task, error) {
	if minutes < 0 {
		return nil, domain.ErrInvalidEstimate
	}
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	task.EstimatedMinutes = minutes
	task.Touch()
	if err := s.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Progress returns a task with its enumerated cells.
func (s *TaskService) Progress(ctx context.Context, taskID string) (*ports.TaskProgress, error) {
	task, err := s.storage.Tasks().FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.progressOf(ctx, task)
}

func (s *TaskService) progressOf(ctx context.Context, task *domain.Task) (*ports.TaskProgress, error) {
	set, err := s.grid.Filled(ctx, task)
	if err != nil {
		return nil, err
	}
	return &ports.TaskProgress{
		Task:          task,
		FilledIndices: set.Sorted(),
		Percentage:    grid.Percentage(task),
	}, nil
}
