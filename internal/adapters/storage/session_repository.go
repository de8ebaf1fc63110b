package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// sessionRepository implements ports.SessionRepository over the "sessions" key.
type sessionRepository struct {
	kv ports.KeyValueStore
}

// newSessionRepository creates a new session repository.
func newSessionRepository(kv ports.KeyValueStore) ports.SessionRepository {
	return &sessionRepository{kv: kv}
}

func (r *sessionRepository) load(ctx context.Context, key string) ([]*domain.Session, error) {
	var sessions []*domain.Session
	ok, err := loadJSON(ctx, r.kv, key, &sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}

	valid := sessions[:0]
	for _, s := range sessions {
		if s != nil && s.ID != "" {
			valid = append(valid, s)
		}
	}
	return valid, nil
}

func (r *sessionRepository) store(ctx context.Context, key string, sessions []*domain.Session) error {
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	if err := saveJSON(ctx, r.kv, key, sessions); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Save appends a session to the history.
func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	sessions, err := r.load(ctx, ports.KeySessions)
	if err != nil {
		return err
	}
	saved := *session
	return r.store(ctx, ports.KeySessions, append(sessions, &saved))
}

// FindByID retrieves a session by its unique identifier, deleted or not.
func (r *sessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	for _, key := range []string{ports.KeySessions, ports.KeyDeletedSessions} {
		sessions, err := r.load(ctx, key)
		if err != nil {
			return nil, err
		}
		for _, s := range sessions {
			if s.ID == id {
				return s, nil
			}
		}
	}
	return nil, domain.ErrSessionNotFound
}

// FindRecent retrieves sessions ended at or after since.
func (r *sessionRepository) FindRecent(ctx context.Context, since time.Time) ([]*domain.Session, error) {
	return r.filter(ctx, func(s *domain.Session) bool {
		return !s.DateEnded.Before(since)
	})
}

// FindByTask retrieves all sessions associated with a task.
func (r *sessionRepository) FindByTask(ctx context.Context, taskID string) ([]*domain.Session, error) {
	return r.filter(ctx, func(s *domain.Session) bool {
		return s.TaskID == taskID
	})
}

func (r *sessionRepository) filter(ctx context.Context, keep func(*domain.Session) bool) ([]*domain.Session, error) {
	sessions, err := r.load(ctx, ports.KeySessions)
	if err != nil {
		return nil, err
	}

	// Walk backwards so sessions ending at the same instant stay newest first.
	var result []*domain.Session
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		if s.Deleted || !keep(s) {
			continue
		}
		result = append(result, s)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DateEnded.After(result[j].DateEnded)
	})
	return result, nil
}

// Update replaces the mutable fields of an existing session. Recorded
// measurements are never rewritten. Deleting a session moves it from the
// sessions record to the deletedSessions record, and undeleting moves it back.
func (r *sessionRepository) Update(ctx context.Context, session *domain.Session) error {
	active, err := r.load(ctx, ports.KeySessions)
	if err != nil {
		return err
	}
	deleted, err := r.load(ctx, ports.KeyDeletedSessions)
	if err != nil {
		return err
	}

	from, fromKey, to := active, ports.KeySessions, deleted
	i := indexOf(active, session.ID)
	if i < 0 {
		from, fromKey, to = deleted, ports.KeyDeletedSessions, active
		if i = indexOf(deleted, session.ID); i < 0 {
			return domain.ErrSessionNotFound
		}
	}

	s := from[i]
	s.Description = session.Description
	s.Deleted = session.Deleted
	toKey := ports.KeySessions
	if s.Deleted {
		toKey = ports.KeyDeletedSessions
	}
	if toKey == fromKey {
		return r.store(ctx, fromKey, from)
	}

	if err := r.store(ctx, toKey, append(to, s)); err != nil {
		return err
	}
	return r.store(ctx, fromKey, append(from[:i], from[i+1:]...))
}

func indexOf(sessions []*domain.Session, id string) int {
	for i, s := range sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}
