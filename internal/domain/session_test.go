package domain

import (
	"testing"
	"time"
)

func TestValidatePhase(t *testing.T) {
	tests := []struct {
		input   string
		want    Phase
		wantErr bool
	}{
		{"focus", PhaseFocus, false},
		{"break", PhaseBreak, false},
		{"long_break", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ValidatePhase(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePhase(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ValidatePhase(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhase_Next(t *testing.T) {
	if PhaseFocus.Next() != PhaseBreak {
		t.Errorf("focus.Next() = %v, want break", PhaseFocus.Next())
	}
	if PhaseBreak.Next() != PhaseFocus {
		t.Errorf("break.Next() = %v, want focus", PhaseBreak.Next())
	}
}

func TestPhase_Label(t *testing.T) {
	tests := []struct {
		p    Phase
		want string
	}{
		{PhaseFocus, "Focus"},
		{PhaseBreak, "Break"},
		{Phase("nap"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.p), func(t *testing.T) {
			if got := GetPhaseLabel(tt.p); got != tt.want {
				t.Errorf("GetPhaseLabel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSession(t *testing.T) {
	task, _ := NewTask("Essay", 50, 8)

	session := NewSession(task, PhaseFocus, 12.5, 2, 4)

	if session.ID == "" {
		t.Error("NewSession() ID is empty")
	}
	if session.TaskID != task.ID || session.TaskName != task.Name {
		t.Errorf("NewSession() task = %q/%q, want %q/%q", session.TaskID, session.TaskName, task.ID, task.Name)
	}
	if session.ProgressGridSize != 8 {
		t.Errorf("ProgressGridSize = %d, want 8", session.ProgressGridSize)
	}
	if session.ProgressDelta() != 2 {
		t.Errorf("ProgressDelta() = %d, want 2", session.ProgressDelta())
	}
	if session.DurationValue() != 12*time.Minute+30*time.Second {
		t.Errorf("DurationValue() = %v, want 12m30s", session.DurationValue())
	}
	if !session.IsFocus() {
		t.Error("IsFocus() should be true")
	}
}

func TestNewSession_ClampsNegativeDuration(t *testing.T) {
	task, _ := NewTask("Essay", 50, 8)
	if got := NewSession(task, PhaseBreak, -3, 0, 0).Duration; got != 0 {
		t.Errorf("Duration = %v, want 0", got)
	}
}

func TestSession_SetGitContext(t *testing.T) {
	s := &Session{}
	s.SetGitContext("main", "abc123")
	if s.GitBranch != "main" || s.GitCommit != "abc123" {
		t.Errorf("git context = %q/%q", s.GitBranch, s.GitCommit)
	}
}
