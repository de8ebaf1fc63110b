package grid

import "github.com/xvierd/flow-grid/internal/domain"

// LinkedSubtask returns the subtask whose fill state drives the cell at index.
func LinkedSubtask(task *domain.Task, index int) (*domain.Subtask, bool) {
	for i := range task.Subtasks {
		st := &task.Subtasks[i]
		if st.Linked() && *st.ProgressGridIndex == index {
			return st, true
		}
	}
	return nil, false
}

// AvailableIndices lists the cells the subtask may link to: every cell not
// linked to a different subtask. The subtask's own index stays available.
func AvailableIndices(task *domain.Task, subtaskID string) []int {
	taken := make(map[int]bool)
	for _, st := range task.Subtasks {
		if st.ID != subtaskID && st.Linked() {
			taken[*st.ProgressGridIndex] = true
		}
	}

	out := make([]int, 0, task.ProgressGridSize)
	for i := 0; i < task.ProgressGridSize; i++ {
		if !taken[i] {
			out = append(out, i)
		}
	}
	return out
}

func indexAvailable(task *domain.Task, subtaskID string, index int) bool {
	for _, i := range AvailableIndices(task, subtaskID) {
		if i == index {
			return true
		}
	}
	return false
}

// syncLinked re-derives linked subtask completion from cell membership and
// reports whether any subtask changed.
func syncLinked(task *domain.Task, set IndexSet) bool {
	changed := false
	for i := range task.Subtasks {
		st := &task.Subtasks[i]
		if !st.Linked() {
			continue
		}
		want := set.Has(*st.ProgressGridIndex)
		if st.Completed != want {
			st.Completed = want
			changed = true
		}
	}
	return changed
}
