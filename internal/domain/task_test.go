package domain

import (
	"errors"
	"testing"
)

func TestNewTask(t *testing.T) {
	tests := []struct {
		name        string
		taskName    string
		estimate    float64
		gridSize    int
		errExpected error
	}{
		{
			name:     "valid task",
			taskName: "Write report",
			estimate: 25,
			gridSize: 10,
		},
		{
			name:        "empty name",
			taskName:    "   ",
			estimate:    25,
			gridSize:    10,
			errExpected: ErrEmptyTaskName,
		},
		{
			name:        "zero grid",
			taskName:    "Write report",
			gridSize:    0,
			errExpected: ErrInvalidGridSize,
		},
		{
			name:        "negative estimate",
			taskName:    "Write report",
			estimate:    -1,
			gridSize:    4,
			errExpected: ErrInvalidEstimate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewTask(tt.taskName, tt.estimate, tt.gridSize)

			if tt.errExpected != nil {
				if !errors.Is(err, tt.errExpected) {
					t.Errorf("NewTask() error = %v, want %v", err, tt.errExpected)
				}
				return
			}

			if err != nil {
				t.Fatalf("NewTask() unexpected error = %v", err)
			}
			if task.ID == "" {
				t.Error("NewTask() ID is empty")
			}
			if task.ProgressGridSize != tt.gridSize {
				t.Errorf("NewTask() grid size = %v, want %v", task.ProgressGridSize, tt.gridSize)
			}
			if task.ProgressGridFilled != 0 {
				t.Errorf("NewTask() filled = %v, want 0", task.ProgressGridFilled)
			}
			if task.CreatedAt.IsZero() {
				t.Error("NewTask() CreatedAt is zero")
			}
		})
	}
}

func TestNewSubtask(t *testing.T) {
	if _, err := NewSubtask("", "title"); !errors.Is(err, ErrInvalidTaskID) {
		t.Errorf("NewSubtask() error = %v, want ErrInvalidTaskID", err)
	}
	if _, err := NewSubtask("task-1", ""); !errors.Is(err, ErrEmptySubtaskTitle) {
		t.Errorf("NewSubtask() error = %v, want ErrEmptySubtaskTitle", err)
	}

	st, err := NewSubtask("task-1", "Outline")
	if err != nil {
		t.Fatalf("NewSubtask() unexpected error = %v", err)
	}
	if st.Linked() {
		t.Error("new subtask should not be linked")
	}
}

func TestTask_CloneIsDeep(t *testing.T) {
	task, _ := NewTask("Clone me", 10, 5)
	st, _ := NewSubtask(task.ID, "Linked")
	st.LinkTo(2)
	task.AddSubtask(*st)

	c := task.Clone()
	*c.Subtasks[0].ProgressGridIndex = 4
	c.Subtasks[0].Completed = true

	if *task.Subtasks[0].ProgressGridIndex != 2 {
		t.Errorf("original index = %d, want 2", *task.Subtasks[0].ProgressGridIndex)
	}
	if task.Subtasks[0].Completed {
		t.Error("original subtask should not be completed")
	}
}

func TestTask_FindSubtask(t *testing.T) {
	task, _ := NewTask("Find", 0, 3)
	st, _ := NewSubtask(task.ID, "One")
	task.AddSubtask(*st)

	found, err := task.FindSubtask(st.ID)
	if err != nil {
		t.Fatalf("FindSubtask() error = %v", err)
	}
	found.Completed = true
	if !task.Subtasks[0].Completed {
		t.Error("FindSubtask() should return a pointer into the task")
	}

	if _, err := task.FindSubtask("missing"); !errors.Is(err, ErrSubtaskNotFound) {
		t.Errorf("FindSubtask() error = %v, want ErrSubtaskNotFound", err)
	}
}

func TestTask_EstimateReached(t *testing.T) {
	tests := []struct {
		name     string
		estimate float64
		spent    float64
		want     bool
	}{
		{"no estimate", 0, 100, false},
		{"below", 25, 24.9, false},
		{"exact", 25, 25, true},
		{"above", 25, 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{EstimatedMinutes: tt.estimate, SpentMinutes: tt.spent}
			if got := task.EstimateReached(); got != tt.want {
				t.Errorf("EstimateReached() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTask_ValidIndex(t *testing.T) {
	task := &Task{ProgressGridSize: 4}
	for idx, want := range map[int]bool{-1: false, 0: true, 3: true, 4: false} {
		if got := task.ValidIndex(idx); got != want {
			t.Errorf("ValidIndex(%d) = %v, want %v", idx, got, want)
		}
	}
}

func TestSubtask_LinkAndUnlink(t *testing.T) {
	st := &Subtask{ID: "s", TaskID: "t", Title: "x"}
	st.LinkTo(3)
	if !st.Linked() || *st.ProgressGridIndex != 3 {
		t.Errorf("LinkTo(3) gave linked=%v index=%v", st.Linked(), st.ProgressGridIndex)
	}
	st.Unlink()
	if st.Linked() || st.ProgressGridIndex != nil {
		t.Error("Unlink() should clear the binding")
	}
}
