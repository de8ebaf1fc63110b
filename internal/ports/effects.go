package ports

import (
	"context"

	"github.com/xvierd/flow-grid/internal/domain"
)

// TaskUpdater applies a full task replacement.
// This is a driven port (implemented by the services layer).
type TaskUpdater interface {
	UpdateTask(ctx context.Context, task *domain.Task) error
}

// Effects are fire-and-forget user-facing side effects.
// This is a driven port (implemented by adapters).
type Effects interface {
	// PhaseEnded plays the end-of-phase notification.
	PhaseEnded(phase domain.Phase)

	// Celebrate fires the completion effect when a task reaches its estimate.
	Celebrate(task *domain.Task)
}
