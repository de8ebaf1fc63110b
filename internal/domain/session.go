package domain

import (
	"fmt"
	"time"
)

// Phase is the kind of interval the timer is counting down.
type Phase string

const (
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
)

// ValidatePhase checks if a string is a valid phase.
func ValidatePhase(s string) (Phase, error) {
	switch p := Phase(s); p {
	case PhaseFocus, PhaseBreak:
		return p, nil
	}
	return "", fmt.Errorf("invalid phase %q: must be focus or break", s)
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if p == PhaseFocus {
		return PhaseBreak
	}
	return PhaseFocus
}

// Label returns a human-readable label.
func (p Phase) Label() string {
	switch p {
	case PhaseFocus:
		return "Focus"
	case PhaseBreak:
		return "Break"
	default:
		return "Unknown"
	}
}

// Session is a confirmed focus or break interval in the history ledger.
type Session struct {
	ID                string    `json:"id"`
	TaskID            string    `json:"taskId"`
	TaskName          string    `json:"taskName"`
	DateEnded         time.Time `json:"dateEnded"`
	Duration          float64   `json:"duration"`
	ProgressGridStart int       `json:"progressGridStart"`
	ProgressGridEnd   int       `json:"progressGridEnd"`
	ProgressGridSize  int       `json:"progressGridSize"`
	Phase             Phase     `json:"phase"`
	Description       string    `json:"description,omitempty"`
	Deleted           bool      `json:"deleted,omitempty"`
	GitBranch         string    `json:"gitBranch,omitempty"`
	GitCommit         string    `json:"gitCommit,omitempty"`
}

// NewSession creates a history record for the given task. Negative
// durations are clamped to zero.
func NewSession(task *Task, phase Phase, duration float64, gridStart, gridEnd int) *Session {
	if duration < 0 {
		duration = 0
	}
	return &Session{
		ID:                generateID(),
		TaskID:            task.ID,
		TaskName:          task.Name,
		DateEnded:         time.Now(),
		Duration:          duration,
		ProgressGridStart: gridStart,
		ProgressGridEnd:   gridEnd,
		ProgressGridSize:  task.ProgressGridSize,
		Phase:             phase,
	}
}

// SetGitContext stores git information for the session.
func (s *Session) SetGitContext(branch, commit string) {
	s.GitBranch = branch
	s.GitCommit = commit
}

// ProgressDelta is the number of cells filled during the session.
func (s *Session) ProgressDelta() int {
	return s.ProgressGridEnd - s.ProgressGridStart
}

// IsFocus returns true if this is a focus session.
func (s *Session) IsFocus() bool {
	return s.Phase == PhaseFocus
}

// DurationValue converts the minute count to a time.Duration.
func (s *Session) DurationValue() time.Duration {
	return time.Duration(s.Duration * float64(time.Minute))
}
