package storage

import (
	"context"
	"fmt"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// timerRepository implements ports.TimerStateRepository over the "timerState" key.
type timerRepository struct {
	kv ports.KeyValueStore
}

func newTimerRepository(kv ports.KeyValueStore) ports.TimerStateRepository {
	return &timerRepository{kv: kv}
}

// Load returns the stored state, or nil when none (or a corrupt one) exists.
func (r *timerRepository) Load(ctx context.Context) (*domain.TimerState, error) {
	var state domain.TimerState
	ok, err := loadJSON(ctx, r.kv, ports.KeyTimerState, &state)
	if err != nil {
		return nil, fmt.Errorf("failed to load timer state: %w", err)
	}
	if !ok {
		return nil, nil
	}
	if _, err := domain.ValidatePhase(string(state.Phase)); err != nil {
		state.Phase = domain.PhaseFocus
	}
	return &state, nil
}

// Save replaces the stored state.
func (r *timerRepository) Save(ctx context.Context, state domain.TimerState) error {
	if err := saveJSON(ctx, r.kv, ports.KeyTimerState, state); err != nil {
		return fmt.Errorf("failed to save timer state: %w", err)
	}
	return nil
}
