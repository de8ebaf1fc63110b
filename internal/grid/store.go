package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// Store persists filled-cell sets under the progressGridFilledIndices key.
// Every call reads the persisted map afresh so concurrent views of the same
// task never write back a stale copy.
type Store struct {
	kv ports.KeyValueStore
}

// NewStore creates a grid store over the given key-value backend.
func NewStore(kv ports.KeyValueStore) *Store {
	return &Store{kv: kv}
}

func (s *Store) loadAll(ctx context.Context) (map[string][]int, error) {
	all := make(map[string][]int)

	data, ok, err := s.kv.Load(ctx, ports.KeyProgressGridFill)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress grid: %w", err)
	}
	if !ok || len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		log.Printf("grid: ignoring corrupt %q record: %v", ports.KeyProgressGridFill, err)
		return make(map[string][]int), nil
	}
	return all, nil
}

// Load returns the stored set for the task, or false when none was saved.
func (s *Store) Load(ctx context.Context, taskID string) (IndexSet, bool, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, false, err
	}
	indices, ok := all[taskID]
	if !ok {
		return nil, false, nil
	}
	return NewIndexSet(indices...), true, nil
}

// Save replaces the stored set for the task. Lists are written sorted.
func (s *Store) Save(ctx context.Context, taskID string, set IndexSet) error {
	all, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	all[taskID] = set.Sorted()
	return s.saveAll(ctx, all)
}

// Delete drops the task's stored set.
func (s *Store) Delete(ctx context.Context, taskID string) error {
	all, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[taskID]; !ok {
		return nil
	}
	delete(all, taskID)
	return s.saveAll(ctx, all)
}

func (s *Store) saveAll(ctx context.Context, all map[string][]int) error {
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode progress grid: %w", err)
	}
	if err := s.kv.Save(ctx, ports.KeyProgressGridFill, data); err != nil {
		return fmt.Errorf("failed to save progress grid: %w", err)
	}
	return nil
}

// Filled returns the task's set, synthesizing {0 .. filled-1} when the task
// has never been saved cell by cell.
func (s *Store) Filled(ctx context.Context, task *domain.Task) (IndexSet, error) {
	set, ok, err := s.Load(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultIndexSet(task.ProgressGridFilled), nil
	}
	return set, nil
}
