package grid

import (
	"context"
	"fmt"
	"math"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// ToggleResult is the outcome of a cell click.
type ToggleResult struct {
	// Task is the task after the click. It is the input task when the cell
	// is linked.
	Task *domain.Task
	// Filled is the cell set after the click.
	Filled IndexSet
	// Linked is set when the cell belongs to a subtask. The cell was not
	// toggled; the caller offers to complete or uncomplete the subtask.
	Linked *domain.Subtask
}

// Controller applies grid mutations. Every mutation writes the cell set
// through the Store and then hands the updated task to the TaskUpdater, so
// ProgressGridFilled always equals the size of the stored set.
type Controller struct {
	store   *Store
	updater ports.TaskUpdater
}

// NewController creates a grid controller.
func NewController(store *Store, updater ports.TaskUpdater) *Controller {
	return &Controller{store: store, updater: updater}
}

// Store exposes the underlying cell store.
func (c *Controller) Store() *Store {
	return c.store
}

// Filled returns the task's current cell set, restricted to the grid.
func (c *Controller) Filled(ctx context.Context, task *domain.Task) (IndexSet, error) {
	set, err := c.store.Filled(ctx, task)
	if err != nil {
		return nil, err
	}
	set.Clamp(task.ProgressGridSize)
	return set, nil
}

// ToggleCell flips an unlinked cell. Linked cells are reported back untouched.
func (c *Controller) ToggleCell(ctx context.Context, task *domain.Task, index int) (ToggleResult, error) {
	if !task.ValidIndex(index) {
		return ToggleResult{}, fmt.Errorf("cell %d of %d: %w", index, task.ProgressGridSize, domain.ErrIndexOutOfRange)
	}

	prev, err := c.Filled(ctx, task)
	if err != nil {
		return ToggleResult{}, err
	}

	if st, ok := LinkedSubtask(task, index); ok {
		linked := *st
		return ToggleResult{Task: task, Filled: prev, Linked: &linked}, nil
	}

	next := prev.Clone()
	next.Toggle(index)

	updated := task.Clone()
	if err := c.apply(ctx, updated, prev, next); err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{Task: updated, Filled: next}, nil
}

// CompleteLinkedSubtask marks the subtask linked at index as completed and
// fills the cell.
func (c *Controller) CompleteLinkedSubtask(ctx context.Context, task *domain.Task, subtaskID string, index int) (*domain.Task, error) {
	return c.setLinked(ctx, task, subtaskID, index, true)
}

// UncompleteLinkedSubtask reverts CompleteLinkedSubtask.
func (c *Controller) UncompleteLinkedSubtask(ctx context.Context, task *domain.Task, subtaskID string, index int) (*domain.Task, error) {
	return c.setLinked(ctx, task, subtaskID, index, false)
}

func (c *Controller) setLinked(ctx context.Context, task *domain.Task, subtaskID string, index int, completed bool) (*domain.Task, error) {
	updated := task.Clone()
	st, err := updated.FindSubtask(subtaskID)
	if err != nil {
		return nil, err
	}
	if !st.Linked() {
		return nil, domain.ErrSubtaskNotLinked
	}
	if *st.ProgressGridIndex != index {
		return nil, fmt.Errorf("subtask is linked to cell %d, not %d: %w", *st.ProgressGridIndex, index, domain.ErrSubtaskNotLinked)
	}

	prev, err := c.Filled(ctx, task)
	if err != nil {
		return nil, err
	}
	next := prev.Clone()
	if completed {
		next.Add(index)
	} else {
		next.Remove(index)
	}
	st.Completed = completed

	if err := c.apply(ctx, updated, prev, next); err != nil {
		return nil, err
	}
	return updated, nil
}

// Percentage is the rounded share of filled cells.
func Percentage(task *domain.Task) int {
	if task.ProgressGridSize <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(task.ProgressGridFilled) / float64(task.ProgressGridSize)))
}

// Resize changes the grid size. Cells beyond the new size are dropped and
// subtasks linked to them lose their link.
func (c *Controller) Resize(ctx context.Context, task *domain.Task, newSize int) (*domain.Task, error) {
	if newSize < 1 {
		return nil, domain.ErrInvalidGridSize
	}

	prev, err := c.store.Filled(ctx, task)
	if err != nil {
		return nil, err
	}
	next := prev.Clone()
	next.Clamp(newSize)

	updated := task.Clone()
	updated.ProgressGridSize = newSize
	for i := range updated.Subtasks {
		st := &updated.Subtasks[i]
		if st.Linked() && !updated.ValidIndex(*st.ProgressGridIndex) {
			st.Unlink()
		}
	}

	if err := c.apply(ctx, updated, prev, next); err != nil {
		return nil, err
	}
	return updated, nil
}

// Restore replaces the cell set with indices and re-derives linked subtask
// completion from it.
func (c *Controller) Restore(ctx context.Context, task *domain.Task, indices []int) (*domain.Task, error) {
	prev, err := c.store.Filled(ctx, task)
	if err != nil {
		return nil, err
	}
	next := NewIndexSet(indices...)
	next.Clamp(task.ProgressGridSize)

	updated := task.Clone()
	syncLinked(updated, next)
	if err := c.apply(ctx, updated, prev, next); err != nil {
		return nil, err
	}
	return updated, nil
}

// FillTo adjusts the set to exactly n cells, filling the lowest empty cells
// or clearing the highest filled ones.
func (c *Controller) FillTo(ctx context.Context, task *domain.Task, n int) (*domain.Task, error) {
	n = max(0, min(n, task.ProgressGridSize))

	current, err := c.Filled(ctx, task)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	for i := 0; next.Len() < n && i < task.ProgressGridSize; i++ {
		next.Add(i)
	}
	for i := task.ProgressGridSize - 1; next.Len() > n && i >= 0; i-- {
		next.Remove(i)
	}
	return c.Restore(ctx, task, next.Sorted())
}

// LinkSubtask binds a subtask to a free cell. The subtask's completion
// follows the cell's current state.
func (c *Controller) LinkSubtask(ctx context.Context, task *domain.Task, subtaskID string, index int) (*domain.Task, error) {
	if !task.ValidIndex(index) {
		return nil, fmt.Errorf("cell %d of %d: %w", index, task.ProgressGridSize, domain.ErrIndexOutOfRange)
	}

	updated := task.Clone()
	st, err := updated.FindSubtask(subtaskID)
	if err != nil {
		return nil, err
	}
	if !indexAvailable(updated, subtaskID, index) {
		return nil, domain.ErrIndexAlreadyLinked
	}

	set, err := c.Filled(ctx, task)
	if err != nil {
		return nil, err
	}
	st.LinkTo(index)
	st.Completed = set.Has(index)

	if err := c.apply(ctx, updated, set, set); err != nil {
		return nil, err
	}
	return updated, nil
}

// UnlinkSubtask removes a subtask's cell binding. The cell keeps its state.
func (c *Controller) UnlinkSubtask(ctx context.Context, task *domain.Task, subtaskID string) (*domain.Task, error) {
	updated := task.Clone()
	st, err := updated.FindSubtask(subtaskID)
	if err != nil {
		return nil, err
	}
	if !st.Linked() {
		return nil, domain.ErrSubtaskNotLinked
	}
	st.Unlink()

	set, err := c.Filled(ctx, task)
	if err != nil {
		return nil, err
	}
	if err := c.apply(ctx, updated, set, set); err != nil {
		return nil, err
	}
	return updated, nil
}

// apply persists next, then the task. A failed task update puts prev back so
// the set and the task never disagree.
func (c *Controller) apply(ctx context.Context, task *domain.Task, prev, next IndexSet) error {
	if err := c.store.Save(ctx, task.ID, next); err != nil {
		return err
	}

	task.ProgressGridFilled = next.Len()
	task.Touch()
	if err := c.updater.UpdateTask(ctx, task); err != nil {
		if rbErr := c.store.Save(ctx, task.ID, prev); rbErr != nil {
			return fmt.Errorf("failed to update task: %w (grid rollback failed: %v)", err, rbErr)
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}
