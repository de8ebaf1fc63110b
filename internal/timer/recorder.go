package timer

import (
	"context"
	"fmt"
	"log"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
	"github.com/xvierd/flow-grid/internal/ports"
)

// Outcome is the result of RecordEnd.
type Outcome int

const (
	// OutcomeNotRecorded means there was nothing to record; timer state is untouched.
	OutcomeNotRecorded Outcome = iota
	// OutcomeRecorded means a session was saved and the open session closed.
	OutcomeRecorded
	// OutcomeNeedsDecision means the session is too short; the caller must
	// rewind or record it with the override.
	OutcomeNeedsDecision
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeNeedsDecision:
		return "needs decision"
	default:
		return "not recorded"
	}
}

// Recorder persists finished sessions and undoes short ones.
type Recorder struct {
	sessions   ports.SessionRepository
	grid       *grid.Controller
	minMinutes float64

	git     ports.GitDetector
	workDir string
}

// NewRecorder creates a session recorder. Sessions shorter than minMinutes
// need an explicit decision.
func NewRecorder(sessions ports.SessionRepository, grid *grid.Controller, minMinutes float64) *Recorder {
	return &Recorder{
		sessions:   sessions,
		grid:       grid,
		minMinutes: minMinutes,
	}
}

// WithGit stamps recorded sessions with the branch and commit of workDir.
func (r *Recorder) WithGit(detector ports.GitDetector, workDir string) *Recorder {
	r.git = detector
	r.workDir = workDir
	return r
}

// Duration is the countdown consumed by the open session, in minutes.
// Wall-clock time is deliberately ignored.
func Duration(state domain.TimerState) float64 {
	return float64(state.CurrentSessionStartSeconds-state.Seconds) / 60
}

// RecordEnd saves the open session with endFilled as its final grid count.
func (r *Recorder) RecordEnd(ctx context.Context, state *domain.TimerState, task *domain.Task, endFilled int, override bool) (Outcome, error) {
	if task == nil {
		log.Printf("timer: record end with no active task, nothing recorded")
		return OutcomeNotRecorded, nil
	}
	if !state.HasOpenSession() {
		log.Printf("timer: record end for task %s with no open session, nothing recorded", task.ID)
		return OutcomeNotRecorded, nil
	}

	duration := Duration(*state)
	if duration < r.minMinutes && !override {
		return OutcomeNeedsDecision, nil
	}

	phase := state.SessionStartPhase
	if phase == "" {
		phase = state.Phase
	}
	session := domain.NewSession(task, phase, duration, state.SessionStartProgress, endFilled)
	r.stampGit(ctx, session)

	if err := r.sessions.Save(ctx, session); err != nil {
		return OutcomeNotRecorded, fmt.Errorf("failed to save session: %w", err)
	}
	state.CloseSession()
	return OutcomeRecorded, nil
}

func (r *Recorder) stampGit(ctx context.Context, session *domain.Session) {
	if r.git == nil || !r.git.IsAvailable(r.workDir) {
		return
	}
	info, err := r.git.Detect(ctx, r.workDir)
	if err != nil {
		log.Printf("timer: git context unavailable: %v", err)
		return
	}
	session.SetGitContext(info.Branch, info.Commit)
}

// Rewind undoes the open session: the countdown, the break bonus, the task's
// spent minutes and its grid go back to the values captured at session
// start, and the session is discarded. The returned task is the restored one.
func (r *Recorder) Rewind(ctx context.Context, state *domain.TimerState, task *domain.Task) (*domain.Task, error) {
	if !state.HasOpenSession() {
		return task, nil
	}

	restored := task
	if task != nil {
		staged := task.Clone()
		staged.SpentMinutes = state.SessionStartSpentMinutes

		var err error
		if state.SessionStartFilledIndices != nil {
			restored, err = r.grid.Restore(ctx, staged, state.SessionStartFilledIndices)
		} else {
			restored, err = r.grid.FillTo(ctx, staged, state.SessionStartProgress)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to rewind task: %w", err)
		}
	}

	state.Seconds = state.CurrentSessionStartSeconds
	if state.SessionStartPhase == domain.PhaseFocus {
		state.BreakBonus = state.SessionStartBreakBonus
	}
	state.CloseSession()
	return restored, nil
}
