package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xvierd/flow-grid/internal/domain"
	"github.com/xvierd/flow-grid/internal/ports"
)

// HistoryService handles the session ledger.
type HistoryService struct {
	storage ports.Storage
}

// NewHistoryService creates a new history service.
func NewHistoryService(storage ports.Storage) *HistoryService {
	return &HistoryService{storage: storage}
}

// Recent returns up to limit sessions ended at or after since, newest first.
// A limit of zero or less means no limit.
func (s *HistoryService) Recent(ctx context.Context, since time.Time, limit int) ([]*domain.Session, error) {
	sessions, err := s.storage.Sessions().FindRecent(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// ForTask returns a task's sessions, newest first.
func (s *HistoryService) ForTask(ctx context.Context, taskID string) ([]*domain.Session, error) {
	return s.storage.Sessions().FindByTask(ctx, taskID)
}

// Describe sets a session's description.
func (s *HistoryService) Describe(ctx context.Context, sessionID, description string) (*domain.Session, error) {
	session, err := s.storage.Sessions().FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Description = strings.TrimSpace(description)
	if err := s.storage.Sessions().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

// Delete soft-deletes a session. It disappears from listings and totals.
func (s *HistoryService) Delete(ctx context.Context, sessionID string) error {
	session, err := s.storage.Sessions().FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	session.Deleted = true
	if err := s.storage.Sessions().Update(ctx, session); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DailyStats aggregates one calendar day of sessions.
type DailyStats struct {
	Date          time.Time
	FocusSessions int
	BreakSessions int
	FocusTime     time.Duration
	BreakTime     time.Duration
	CellsFilled   int
}

// Daily aggregates the sessions that ended on day's calendar date in its
// location.
func (s *HistoryService) Daily(ctx context.Context, day time.Time) (*DailyStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	sessions, err := s.storage.Sessions().FindRecent(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	stats := &DailyStats{Date: start}
	for _, session := range sessions {
		if !session.DateEnded.Before(end) {
			continue
		}
		if session.IsFocus() {
			stats.FocusSessions++
			stats.FocusTime += session.DurationValue()
			stats.CellsFilled += session.ProgressDelta()
		} else {
			stats.BreakSessions++
			stats.BreakTime += session.DurationValue()
		}
	}
	return stats, nil
}
