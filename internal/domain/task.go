// Package domain contains the core business entities for flow-grid.
// These entities represent tasks, their progress grids and the session
// history, and are independent of any external frameworks or infrastructure.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Common domain errors.
var (
	ErrInvalidTaskID      = errors.New("invalid task ID")
	ErrEmptyTaskName      = errors.New("task name cannot be empty")
	ErrEmptySubtaskTitle  = errors.New("subtask title cannot be empty")
	ErrTaskNotFound       = errors.New("task not found")
	ErrSubtaskNotFound    = errors.New("subtask not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidGridSize    = errors.New("progress grid size must be at least 1")
	ErrIndexOutOfRange    = errors.New("grid index out of range")
	ErrIndexAlreadyLinked = errors.New("grid index already linked to another subtask")
	ErrSubtaskNotLinked   = errors.New("subtask is not linked to the progress grid")
	ErrInvalidEstimate    = errors.New("estimated minutes cannot be negative")
)

// Task represents a unit of work with a progress grid and tracked focus time.
type Task struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	EstimatedMinutes   float64   `json:"estimatedMinutes"`
	SpentMinutes       float64   `json:"spentMinutes"`
	ProgressGridSize   int       `json:"progressGridSize"`
	ProgressGridFilled int       `json:"progressGridFilled"`
	Subtasks           []Subtask `json:"subtasks"`
	Completed          bool      `json:"completed"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Subtask is a checklist item of a task, optionally bound to one grid cell.
type Subtask struct {
	ID                   string `json:"id"`
	TaskID               string `json:"taskId"`
	Title                string `json:"title"`
	Completed            bool   `json:"completed"`
	LinkedToProgressGrid bool   `json:"linkedToProgressGrid"`
	ProgressGridIndex    *int   `json:"progressGridIndex,omitempty"`
}

// NewTask creates a new task with the given name, estimate and grid size.
func NewTask(name string, estimatedMinutes float64, gridSize int) (*Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTaskName
	}
	if estimatedMinutes < 0 {
		return nil, ErrInvalidEstimate
	}
	if gridSize < 1 {
		return nil, ErrInvalidGridSize
	}

	now := time.Now()
	return &Task{
		ID:               generateID(),
		Name:             name,
		EstimatedMinutes: estimatedMinutes,
		ProgressGridSize: gridSize,
		Subtasks:         []Subtask{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NewSubtask creates a new, unlinked subtask for the task.
func NewSubtask(taskID, title string) (*Subtask, error) {
	if taskID == "" {
		return nil, ErrInvalidTaskID
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptySubtaskTitle
	}
	return &Subtask{
		ID:     generateID(),
		TaskID: taskID,
		Title:  title,
	}, nil
}

// Clone returns a deep copy of the task so callers can stage mutations.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Subtasks = make([]Subtask, len(t.Subtasks))
	for i, st := range t.Subtasks {
		c.Subtasks[i] = st.clone()
	}
	return &c
}

func (s Subtask) clone() Subtask {
	if s.ProgressGridIndex != nil {
		idx := *s.ProgressGridIndex
		s.ProgressGridIndex = &idx
	}
	return s
}

// FindSubtask returns a pointer into the task's subtask slice.
func (t *Task) FindSubtask(id string) (*Subtask, error) {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i], nil
		}
	}
	return nil, ErrSubtaskNotFound
}

// AddSubtask appends a subtask to the task.
func (t *Task) AddSubtask(st Subtask) {
	t.Subtasks = append(t.Subtasks, st)
	t.UpdatedAt = time.Now()
}

// ValidIndex reports whether index addresses a cell of the task's grid.
func (t *Task) ValidIndex(index int) bool {
	return index >= 0 && index < t.ProgressGridSize
}

// Complete marks the task as completed.
func (t *Task) Complete() {
	t.Completed = true
	t.UpdatedAt = time.Now()
}

// Touch bumps the modification time.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now()
}

// EstimateReached reports whether the spent time has met the estimate.
// Tasks without an estimate never reach it.
func (t *Task) EstimateReached() bool {
	return t.EstimatedMinutes > 0 && t.SpentMinutes >= t.EstimatedMinutes
}

// Linked returns true if the subtask is bound to a grid cell.
func (s *Subtask) Linked() bool {
	return s.LinkedToProgressGrid && s.ProgressGridIndex != nil
}

// LinkTo binds the subtask to the given grid cell.
func (s *Subtask) LinkTo(index int) {
	s.LinkedToProgressGrid = true
	s.ProgressGridIndex = &index
}

// Unlink removes the grid binding.
func (s *Subtask) Unlink() {
	s.LinkedToProgressGrid = false
	s.ProgressGridIndex = nil
}
