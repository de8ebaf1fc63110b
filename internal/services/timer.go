package services

import (
	"context"

	"github.com/xvierd/flow-grid/internal/ports"
	"github.com/xvierd/flow-grid/internal/timer"
)

// TimerOptions wires the optional collaborators of the timer engine.
type TimerOptions struct {
	Effects     ports.Effects
	Listener    timer.Listener
	GitDetector ports.GitDetector
	WorkingDir  string
}

// NewTimer builds a timer engine over the task service's grid and storage.
func NewTimer(ctx context.Context, cfg timer.Config, storage ports.Storage, tasks *TaskService, opts TimerOptions) (*timer.Engine, error) {
	recorder := timer.NewRecorder(storage.Sessions(), tasks.Grid(), cfg.MinSessionMinutes)
	if opts.GitDetector != nil {
		recorder.WithGit(opts.GitDetector, opts.WorkingDir)
	}

	return timer.NewEngine(ctx, cfg, timer.Deps{
		Tasks:    storage.Tasks(),
		Updater:  tasks,
		Grid:     tasks.Grid(),
		Recorder: recorder,
		Effects:  opts.Effects,
		States:   storage.Timer(),
		Listener: opts.Listener,
	})
}
