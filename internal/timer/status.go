// Package timer implements the focus/break state machine and the session
// recorder that turns finished intervals into history records.
package timer

import "time"

// Mode is the engine's top-level state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeRunning
	ModeAwaitingStart
	ModeAwaitingEnd
	ModeAwaitingRewind
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeRunning:
		return "running"
	case ModeAwaitingStart:
		return "awaiting start"
	case ModeAwaitingEnd:
		return "awaiting end"
	case ModeAwaitingRewind:
		return "awaiting rewind"
	default:
		return "unknown"
	}
}

// Pending is the user action deferred until the end gate resolves.
type Pending int

const (
	PendingNone Pending = iota
	PendingSkip
	PendingReset
)

func (p Pending) String() string {
	switch p {
	case PendingSkip:
		return "skip"
	case PendingReset:
		return "reset"
	default:
		return "none"
	}
}

// Status is the tagged engine state. Pending and Natural are meaningful in
// ModeAwaitingEnd and ModeAwaitingRewind; EndFilled and Duration only in
// ModeAwaitingRewind.
type Status struct {
	Mode Mode

	Pending Pending
	// Natural is set when the countdown itself reached zero.
	Natural bool

	EndFilled int
	Duration  float64
}

func idle() Status { return Status{Mode: ModeIdle} }

func awaitingEnd(p Pending, natural bool) Status {
	return Status{Mode: ModeAwaitingEnd, Pending: p, Natural: natural}
}

// Gated reports whether a modal decision is outstanding.
func (s Status) Gated() bool {
	switch s.Mode {
	case ModeAwaitingStart, ModeAwaitingEnd, ModeAwaitingRewind:
		return true
	}
	return false
}

// Config holds the timer durations.
type Config struct {
	FocusSeconds      int
	BreakSeconds      int
	BonusSeconds      int
	MinSessionMinutes float64
}

// DefaultConfig is 25 minutes of focus, 5 of break, a 5 minute bonus and
// a 2 minute recording threshold.
func DefaultConfig() Config {
	return Config{
		FocusSeconds:      int((25 * time.Minute).Seconds()),
		BreakSeconds:      int((5 * time.Minute).Seconds()),
		BonusSeconds:      300,
		MinSessionMinutes: 2,
	}
}
