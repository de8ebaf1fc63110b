package timer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/grid"
	"github.com/xvierd/flow-grid/internal/ports"
)

// Engine errors.
var (
	ErrGateOpen          = errors.New("a start or end decision is pending")
	ErrNotRunning        = errors.New("timer is not running")
	ErrAlreadyRunning    = errors.New("timer is already running")
	ErrNoDecisionPending = errors.New("no decision is pending")
	ErrSessionOpen       = errors.New("another task has an open session")
	ErrNoActiveTask      = errors.New("no active task selected")
)

// Listener receives engine notifications. Nil fields are skipped.
type Listener struct {
	OnUpdateTask    func(task *domain.Task)
	OnTaskComplete  func(taskID string)
	OnTick          func(deltaSeconds int)
	OnRunningChange func(running bool)
}

func (l Listener) updateTask(t *domain.Task) {
	if l.OnUpdateTask != nil && t != nil {
		l.OnUpdateTask(t)
	}
}

func (l Listener) taskComplete(id string) {
	if l.OnTaskComplete != nil {
		l.OnTaskComplete(id)
	}
}

func (l Listener) tick(d int) {
	if l.OnTick != nil {
		l.OnTick(d)
	}
}

func (l Listener) runningChange(r bool) {
	if l.OnRunningChange != nil {
		l.OnRunningChange(r)
	}
}

// Deps are the engine's collaborators.
type Deps struct {
	Tasks    ports.TaskRepository
	Updater  ports.TaskUpdater
	Grid     *grid.Controller
	Recorder *Recorder
	Effects  ports.Effects
	States   ports.TimerStateRepository
	Listener Listener
}

// Engine is the focus/break state machine. It is not safe for concurrent
// use; all calls are expected from a single event loop.
type Engine struct {
	cfg  Config
	deps Deps

	state  domain.TimerState
	status Status

	// checked is set once the start gate was confirmed for the current
	// task selection.
	checked bool
	// rewoundAt is the start time of a session undone by Rewind. The next
	// ungated start reopens that session instead of taking a fresh snapshot.
	rewoundAt *time.Time

	now func() time.Time
}

// NewEngine creates an engine and restores any persisted timer state. A
// restored engine is idle; an open session is kept. A countdown persisted at
// zero reopens its end decision.
func NewEngine(ctx context.Context, cfg Config, deps Deps) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		deps:   deps,
		state:  domain.NewTimerState(cfg.FocusSeconds),
		status: idle(),
		now:    time.Now,
	}

	saved, err := deps.States.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore timer: %w", err)
	}
	if saved != nil {
		e.state = *saved
		if e.state.Seconds <= 0 {
			e.state.Seconds = 0
			e.status = awaitingEnd(PendingNone, true)
		}
	}
	return e, nil
}

// State returns a copy of the timer state.
func (e *Engine) State() domain.TimerState {
	s := e.state
	s.SessionStartFilledIndices = append([]int(nil), e.state.SessionStartFilledIndices...)
	return s
}

// Status returns the current tagged state.
func (e *Engine) Status() Status {
	return e.status
}

// Running reports whether the ticker should be armed.
func (e *Engine) Running() bool {
	return e.status.Mode == ModeRunning
}

// SetListener replaces the notification callbacks.
func (e *Engine) SetListener(l Listener) {
	e.deps.Listener = l
}

// Config returns the engine's durations.
func (e *Engine) Config() Config {
	return e.cfg
}

// ActiveTaskID returns the selected task, or "".
func (e *Engine) ActiveTaskID() string {
	return e.state.ActiveTaskID
}

// ActiveTask loads the selected task. It returns nil without error when no
// task is selected.
func (e *Engine) ActiveTask(ctx context.Context) (*domain.Task, error) {
	if e.state.ActiveTaskID == "" {
		return nil, nil
	}
	return e.deps.Tasks.FindByID(ctx, e.state.ActiveTaskID)
}

// SelectTask makes taskID the active task and re-arms the start gate.
func (e *Engine) SelectTask(ctx context.Context, taskID string) error {
	switch {
	case e.status.Mode == ModeRunning:
		return ErrAlreadyRunning
	case e.status.Gated():
		return ErrGateOpen
	}

	if _, err := e.deps.Tasks.FindByID(ctx, taskID); err != nil {
		return err
	}

	if e.state.HasOpenSession() {
		switch e.state.ActiveTaskID {
		case taskID:
		case "":
			log.Printf("timer: dropping open session without a task")
			e.state.CloseSession()
		default:
			return ErrSessionOpen
		}
	}

	if e.state.ActiveTaskID != taskID {
		e.rewoundAt = nil
	}
	e.state.ActiveTaskID = taskID
	e.checked = false
	return e.persist(ctx)
}

// Start begins or resumes the countdown. The first focus start after a task
// selection opens the start gate instead.
func (e *Engine) Start(ctx context.Context) error {
	switch {
	case e.status.Mode == ModeRunning:
		return ErrAlreadyRunning
	case e.status.Gated():
		return ErrGateOpen
	}

	if e.state.Phase == domain.PhaseFocus {
		if e.state.ActiveTaskID == "" {
			return ErrNoActiveTask
		}
		if !e.checked && !e.state.HasOpenSession() {
			e.status = Status{Mode: ModeAwaitingStart}
			return e.persist(ctx)
		}
	}
	return e.run(ctx)
}

// ConfirmStart resolves the start gate and starts the countdown. A confirmed
// gate always takes a fresh snapshot, even after a rewind.
func (e *Engine) ConfirmStart(ctx context.Context) error {
	if e.status.Mode != ModeAwaitingStart {
		return ErrNoDecisionPending
	}
	e.checked = true
	e.rewoundAt = nil
	return e.run(ctx)
}

// CancelStart closes the start gate without touching the timer.
func (e *Engine) CancelStart() error {
	if e.status.Mode != ModeAwaitingStart {
		return ErrNoDecisionPending
	}
	e.status = idle()
	return nil
}

func (e *Engine) run(ctx context.Context) error {
	if !e.state.HasOpenSession() {
		if err := e.openSession(ctx); err != nil {
			return err
		}
	}
	e.status = Status{Mode: ModeRunning}
	e.deps.Listener.runningChange(true)
	return e.persist(ctx)
}

func (e *Engine) openSession(ctx context.Context) error {
	rewound := e.rewoundAt
	e.rewoundAt = nil

	task, err := e.ActiveTask(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active task: %w", err)
	}
	if task == nil {
		return nil
	}

	if rewound != nil && e.state.SessionStartPhase == e.state.Phase &&
		e.state.CurrentSessionStartSeconds == e.state.Seconds {
		start := *rewound
		e.state.CurrentSessionStartTime = &start
		return nil
	}

	filled, err := e.deps.Grid.Filled(ctx, task)
	if err != nil {
		return err
	}
	e.state.OpenSession(e.now(), filled.Len(), task.SpentMinutes, filled.Sorted())
	return nil
}

// Tick consumes one second of the countdown.
func (e *Engine) Tick(ctx context.Context) error {
	if e.status.Mode != ModeRunning {
		return ErrNotRunning
	}

	e.state.Seconds--
	if e.state.Phase == domain.PhaseFocus {
		if err := e.accrue(ctx); err != nil {
			return err
		}
	}

	if e.state.Seconds <= 0 {
		e.state.Seconds = 0
		e.status = awaitingEnd(PendingNone, true)
		e.deps.Listener.runningChange(false)
		if e.deps.Effects != nil {
			e.deps.Effects.PhaseEnded(e.state.Phase)
		}
	}
	return e.persist(ctx)
}

// accrue adds one focus second to the active task and detects the moment
// its estimate is crossed.
func (e *Engine) accrue(ctx context.Context) error {
	task, err := e.ActiveTask(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active task: %w", err)
	}
	if task == nil {
		return nil
	}

	before := task.SpentMinutes
	updated := task.Clone()
	updated.SpentMinutes += 1.0 / 60
	updated.Touch()
	if err := e.deps.Updater.UpdateTask(ctx, updated); err != nil {
		return fmt.Errorf("failed to update spent time: %w", err)
	}
	e.deps.Listener.updateTask(updated)
	e.deps.Listener.tick(1)

	est := updated.EstimatedMinutes
	if est > 0 && before < est && updated.SpentMinutes >= est && e.state.Seconds > 0 {
		e.state.BreakBonus += e.cfg.BonusSeconds
		if e.deps.Effects != nil {
			e.deps.Effects.Celebrate(updated)
		}
		e.deps.Listener.taskComplete(updated.ID)
	}
	return nil
}

// Pause stops the countdown and opens the end gate.
func (e *Engine) Pause(ctx context.Context) error {
	if e.status.Mode != ModeRunning {
		if e.status.Gated() {
			return ErrGateOpen
		}
		return ErrNotRunning
	}
	return e.stopForEnd(ctx, PendingNone)
}

// Skip advances to the next phase. While running, or while a session is
// open, the advance waits for the end gate.
func (e *Engine) Skip(ctx context.Context) error {
	return e.userAction(ctx, PendingSkip)
}

// Reset refills the current phase's countdown. While running, or while a
// session is open, the reset waits for the end gate.
func (e *Engine) Reset(ctx context.Context) error {
	return e.userAction(ctx, PendingReset)
}

func (e *Engine) userAction(ctx context.Context, p Pending) error {
	switch {
	case e.status.Mode == ModeRunning:
		return e.stopForEnd(ctx, p)
	case e.status.Gated():
		return ErrGateOpen
	case e.state.HasOpenSession():
		e.status = awaitingEnd(p, false)
		return e.persist(ctx)
	}

	e.rewoundAt = nil
	e.apply(p)
	return e.persist(ctx)
}

func (e *Engine) stopForEnd(ctx context.Context, p Pending) error {
	e.status = awaitingEnd(p, false)
	e.deps.Listener.runningChange(false)
	return e.persist(ctx)
}

// EndFilled is the active task's current grid count, the default value for
// the end editor.
func (e *Engine) EndFilled(ctx context.Context) (int, error) {
	task, err := e.ActiveTask(ctx)
	if err != nil || task == nil {
		return 0, err
	}
	set, err := e.deps.Grid.Filled(ctx, task)
	if err != nil {
		return 0, err
	}
	return set.Len(), nil
}

// ResolveEnd confirms the end gate with the grid count at session end.
// Short sessions move to the rewind decision; everything else is recorded
// and the deferred action applied.
func (e *Engine) ResolveEnd(ctx context.Context, filled int) error {
	if e.status.Mode != ModeAwaitingEnd {
		return ErrNoDecisionPending
	}
	return e.recordAndFinish(ctx, filled, false)
}

// CancelEnd closes the end gate without confirming. A countdown that reached
// zero is still recorded and advanced; a user-initiated stop resumes running.
func (e *Engine) CancelEnd(ctx context.Context) error {
	if e.status.Mode != ModeAwaitingEnd {
		return ErrNoDecisionPending
	}
	if !e.status.Natural {
		e.status = Status{Mode: ModeRunning}
		e.deps.Listener.runningChange(true)
		return e.persist(ctx)
	}

	filled, err := e.EndFilled(ctx)
	if err != nil {
		return err
	}
	return e.recordAndFinish(ctx, filled, true)
}

func (e *Engine) recordAndFinish(ctx context.Context, filled int, override bool) error {
	task, err := e.ActiveTask(ctx)
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		return fmt.Errorf("failed to load active task: %w", err)
	}

	outcome, err := e.deps.Recorder.RecordEnd(ctx, &e.state, task, filled, override)
	if err != nil {
		return err
	}

	switch outcome {
	case OutcomeNeedsDecision:
		e.status = Status{
			Mode:      ModeAwaitingRewind,
			Pending:   e.status.Pending,
			Natural:   e.status.Natural,
			EndFilled: filled,
			Duration:  Duration(e.state),
		}
		return e.persist(ctx)
	case OutcomeNotRecorded:
		if e.state.HasOpenSession() {
			log.Printf("timer: discarding open session of missing task %s", e.state.ActiveTaskID)
			e.state.CloseSession()
		}
	}

	e.finish()
	return e.persist(ctx)
}

// Rewind resolves the rewind decision by undoing the short session.
func (e *Engine) Rewind(ctx context.Context) error {
	if e.status.Mode != ModeAwaitingRewind {
		return ErrNoDecisionPending
	}

	task, err := e.ActiveTask(ctx)
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		return fmt.Errorf("failed to load active task: %w", err)
	}

	startedAt := e.state.CurrentSessionStartTime
	restored, err := e.deps.Recorder.Rewind(ctx, &e.state, task)
	if err != nil {
		return err
	}
	e.deps.Listener.updateTask(restored)
	e.rewoundAt = startedAt

	if p := e.status.Pending; p != PendingNone {
		e.rewoundAt = nil
		e.apply(p)
	}
	e.status = idle()
	return e.persist(ctx)
}

// ContinueWithoutRewind resolves the rewind decision by recording the short
// session anyway.
func (e *Engine) ContinueWithoutRewind(ctx context.Context) error {
	if e.status.Mode != ModeAwaitingRewind {
		return ErrNoDecisionPending
	}
	return e.recordAndFinish(ctx, e.status.EndFilled, true)
}

// finish applies what the end gate deferred and returns to idle.
func (e *Engine) finish() {
	switch {
	case e.status.Pending != PendingNone:
		e.apply(e.status.Pending)
	case e.status.Natural:
		e.advance()
	}
	e.status = idle()
}

func (e *Engine) apply(p Pending) {
	switch p {
	case PendingSkip:
		e.advance()
	case PendingReset:
		e.reset()
	}
}

// advance switches phase. The bonus earned during focus is added to the
// break and cleared when focus resumes.
func (e *Engine) advance() {
	e.state.Phase = e.state.Phase.Next()
	if e.state.Phase == domain.PhaseBreak {
		e.state.Seconds = e.cfg.BreakSeconds + e.state.BreakBonus
		return
	}
	e.state.Seconds = e.cfg.FocusSeconds
	e.state.BreakBonus = 0
}

func (e *Engine) reset() {
	if e.state.Phase == domain.PhaseBreak {
		e.state.Seconds = e.cfg.BreakSeconds + e.state.BreakBonus
		return
	}
	e.state.Seconds = e.cfg.FocusSeconds
}

func (e *Engine) persist(ctx context.Context) error {
	if err := e.deps.States.Save(ctx, e.State()); err != nil {
		return fmt.Errorf("failed to save timer state: %w", err)
	}
	return nil
}
