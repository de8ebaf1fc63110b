package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/sahilm/fuzzy"
	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// taskRepository implements ports.TaskRepository over the "tasks" key.
type taskRepository struct {
	kv ports.KeyValueStore
}

// newTaskRepository creates a new task repository.
func newTaskRepository(kv ports.KeyValueStore) ports.TaskRepository {
	return &taskRepository{kv: kv}
}

func (r *taskRepository) load(ctx context.Context) ([]*domain.Task, error) {
	var tasks []*domain.Task
	ok, err := loadJSON(ctx, r.kv, ports.KeyTasks, &tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	if !ok {
		return nil, nil
	}

	// Drop null or ID-less entries from hand-edited data.
	valid := tasks[:0]
	for _, t := range tasks {
		if t != nil && t.ID != "" {
			valid = append(valid, t)
		}
	}
	return valid, nil
}

func (r *taskRepository) store(ctx context.Context, tasks []*domain.Task) error {
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	if err := saveJSON(ctx, r.kv, ports.KeyTasks, tasks); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	return nil
}

// Save inserts or replaces a task.
func (r *taskRepository) Save(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidTaskID
	}
	tasks, err := r.load(ctx)
	if err != nil {
		return err
	}

	saved := task.Clone()
	for i, t := range tasks {
		if t.ID == task.ID {
			tasks[i] = saved
			return r.store(ctx, tasks)
		}
	}
	return r.store(ctx, append(tasks, saved))
}

// FindByID retrieves a task by its unique identifier.
func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	tasks, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

// FindAll retrieves all tasks ordered by creation time.
func (r *taskRepository) FindAll(ctx context.Context, includeCompleted bool) ([]*domain.Task, error) {
	tasks, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed && !includeCompleted {
			continue
		}
		result = append(result, t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// FindByName does a fuzzy search for tasks by name, best match first.
func (r *taskRepository) FindByName(ctx context.Context, query string) ([]*domain.Task, error) {
	tasks, err := r.FindAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks for fuzzy search: %w", err)
	}

	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name
	}

	matches := fuzzy.Find(query, names)

	result := make([]*domain.Task, 0, len(matches))
	for _, match := range matches {
		result = append(result, tasks[match.Index])
	}
	return result, nil
}

// Delete removes a task from storage.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	tasks, err := r.load(ctx)
	if err != nil {
		return err
	}
	for i, t := range tasks {
		if t.ID == id {
			return r.store(ctx, append(tasks[:i], tasks[i+1:]...))
		}
	}
	return domain.ErrTaskNotFound
}
