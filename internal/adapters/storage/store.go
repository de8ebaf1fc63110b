package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/xvierd/flow-grid/internal/ports"
)

// store implements ports.Storage on top of any key-value backend.
type store struct {
	kv          ports.KeyValueStore
	taskRepo    ports.TaskRepository
	sessionRepo ports.SessionRepository
	timerRepo   ports.TimerStateRepository
	closeFn     func() error
}

// Ensure store implements ports.Storage.
var _ ports.Storage = (*store)(nil)

func newStore(kv ports.KeyValueStore, closeFn func() error) *store {
	return &store{
		kv:          kv,
		taskRepo:    newTaskRepository(kv),
		sessionRepo: newSessionRepository(kv),
		timerRepo:   newTimerRepository(kv),
		closeFn:     closeFn,
	}
}

// KV returns the raw key-value store.
func (s *store) KV() ports.KeyValueStore {
	return s.kv
}

// Tasks returns the task repository.
func (s *store) Tasks() ports.TaskRepository {
	return s.taskRepo
}

// Sessions returns the session repository.
func (s *store) Sessions() ports.SessionRepository {
	return s.sessionRepo
}

// Timer returns the timer state repository.
func (s *store) Timer() ports.TimerStateRepository {
	return s.timerRepo
}

// Close closes the backend.
func (s *store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// loadJSON decodes the value under key into v. A missing or corrupt value
// reports false and v may hold a partial decode that callers must discard;
// only backend failures are errors.
func loadJSON(ctx context.Context, kv ports.KeyValueStore, key string, v any) (bool, error) {
	data, ok, err := kv.Load(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("storage: ignoring corrupt %q record: %v", key, err)
		return false, nil
	}
	return true, nil
}

// saveJSON encodes v and stores it under key.
func saveJSON(ctx context.Context, kv ports.KeyValueStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Save(ctx, key, data)
}
