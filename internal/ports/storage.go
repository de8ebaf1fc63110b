// Package ports defines the interfaces (driven and driving ports)
// for the flow-grid application following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/xvierd/flow-grid/internal/domain"
)

// Keys of the persisted records in the key-value store.
const (
	KeyTasks            = "tasks"
	KeySessions         = "sessions"
	KeyDeletedSessions  = "deletedSessions"
	KeyTimerState       = "timerState"
	KeyProgressGridFill = "progressGridFilledIndices"
)

// KeyValueStore is the narrow persistence contract every repository is
// built on. Values are JSON documents.
// This is a driven port (implemented by adapters).
type KeyValueStore interface {
	// Load returns the raw value for key and whether it exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)

	// Save replaces the value stored under key.
	Save(ctx context.Context, key string, value []byte) error
}

// TaskRepository defines the interface for task persistence.
// This is a driven port (implemented by adapters).
type TaskRepository interface {
	// Save inserts or replaces a task.
	Save(ctx context.Context, task *domain.Task) error

	// FindByID retrieves a task by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// FindAll retrieves all tasks, optionally only the open ones.
	FindAll(ctx context.Context, includeCompleted bool) ([]*domain.Task, error)

	// FindByName does a fuzzy search over task names.
	FindByName(ctx context.Context, query string) ([]*domain.Task, error)

	// Delete removes a task from storage.
	Delete(ctx context.Context, id string) error
}

// SessionRepository defines the interface for history persistence.
// This is a driven port (implemented by adapters).
type SessionRepository interface {
	// Save appends a session to the history.
	Save(ctx context.Context, session *domain.Session) error

	// FindByID retrieves a session by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.Session, error)

	// FindRecent retrieves non-deleted sessions ended at or after since,
	// newest first.
	FindRecent(ctx context.Context, since time.Time) ([]*domain.Session, error)

	// FindByTask retrieves non-deleted sessions for a task, newest first.
	FindByTask(ctx context.Context, taskID string) ([]*domain.Session, error)

	// Update replaces the mutable fields (description, deleted) of a session.
	Update(ctx context.Context, session *domain.Session) error
}

// TimerStateRepository persists the single timer state record.
// This is a driven port (implemented by adapters).
type TimerStateRepository interface {
	// Load returns the stored state, or nil if none was saved.
	Load(ctx context.Context) (*domain.TimerState, error)

	// Save replaces the stored state.
	Save(ctx context.Context, state domain.TimerState) error
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// KV exposes the raw key-value store for components that own a key.
	KV() KeyValueStore

	// Tasks provides access to task operations.
	Tasks() TaskRepository

	// Sessions provides access to session operations.
	Sessions() SessionRepository

	// Timer provides access to the persisted timer state.
	Timer() TimerStateRepository

	// Close releases the underlying resources.
	Close() error
}
