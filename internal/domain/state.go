package domain

import (
	"time"
)

// TimerState is the persisted shape of the timer and its open session.
type TimerState struct {
	Phase      Phase `json:"phase"`
	Seconds    int   `json:"seconds"`
	BreakBonus int   `json:"breakBonus"`

	// Open session snapshot. CurrentSessionStartTime is nil when no session is open.
	CurrentSessionStartTime    *time.Time `json:"currentSessionStartTime"`
	CurrentSessionStartSeconds int        `json:"currentSessionStartSeconds"`
	SessionStartProgress       int        `json:"sessionStartProgress"`
	SessionStartSpentMinutes   float64    `json:"sessionStartSpentMinutes"`
	SessionStartPhase          Phase      `json:"sessionStartPhase"`
	SessionStartBreakBonus     int        `json:"sessionStartBreakBonus"`
	SessionStartFilledIndices  []int      `json:"sessionStartFilledIndices,omitempty"`

	// ActiveTaskID is the task selected when the state was written.
	ActiveTaskID string `json:"activeTaskId,omitempty"`
}

// NewTimerState returns an idle focus timer with a full focus duration.
func NewTimerState(focusSeconds int) TimerState {
	return TimerState{
		Phase:   PhaseFocus,
		Seconds: focusSeconds,
	}
}

// HasOpenSession returns true while a started session is unresolved.
func (s TimerState) HasOpenSession() bool {
	return s.CurrentSessionStartTime != nil
}

// OpenSession snapshots the session start fields.
func (s *TimerState) OpenSession(now time.Time, filled int, spent float64, indices []int) {
	s.CurrentSessionStartTime = &now
	s.CurrentSessionStartSeconds = s.Seconds
	s.SessionStartProgress = filled
	s.SessionStartSpentMinutes = spent
	s.SessionStartPhase = s.Phase
	s.SessionStartBreakBonus = s.BreakBonus
	s.SessionStartFilledIndices = append([]int(nil), indices...)
}

// CloseSession clears the open session marker. The remaining snapshot
// fields are left in place.
func (s *TimerState) CloseSession() {
	s.CurrentSessionStartTime = nil
}

// ElapsedSeconds is the countdown consumed since the session opened.
func (s *TimerState) ElapsedSeconds() int {
	return s.CurrentSessionStartSeconds - s.Seconds
}

// GetPhaseLabel returns a human-readable label for the timer phase.
func GetPhaseLabel(p Phase) string {
	return p.Label()
}
