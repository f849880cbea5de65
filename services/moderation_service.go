package services

import (
	"context"
	"log/slog"

	"eventboard-api/models"
	"eventboard-api/repositories"
)

// ModerationService keeps the live pending view and applies moderator
// decisions. It does no authorization of its own; callers gate access.
type ModerationService struct {
	store   repositories.EventStore
	metrics *Metrics
	view    *liveView
}

func NewModerationService(store repositories.EventStore, metrics *Metrics) *ModerationService {
	s := &ModerationService{
		store:   store,
		metrics: metrics,
		view:    newLiveView("pending", repositories.Where(repositories.FieldStatus, string(models.StatusPending))),
	}
	s.view.onSnapshot = func(events []models.CommunityEvent) {
		metrics.ViewSize("pending", len(events))
	}
	return s
}

// Start opens the standing pending subscription.
func (s *ModerationService) Start(ctx context.Context) error {
	return s.view.start(ctx, s.store)
}

func (s *ModerationService) Stop() {
	s.view.stop()
}

// Pending returns the latest pending snapshot. Callers must not modify it.
func (s *ModerationService) Pending() []models.CommunityEvent {
	return s.view.snapshot()
}

func (s *ModerationService) Count() int {
	return len(s.view.snapshot())
}

// Loading reports whether the first snapshot is still outstanding.
func (s *ModerationService) Loading() bool {
	return s.view.isLoading()
}

// Approve flips the event to Approved. Approving an approved event succeeds
// and changes nothing.
func (s *ModerationService) Approve(ctx context.Context, id string) error {
	err := s.store.Update(ctx, id, repositories.Fields{repositories.FieldStatus: models.StatusApproved})
	s.metrics.ModerationAction("approve", err)
	if err != nil {
		slog.Error("event_approve_failed", "event_id", id, "error", err)
		return err
	}
	slog.Info("event_approved", "event_id", id)
	return nil
}

// Reject deletes the event permanently.
func (s *ModerationService) Reject(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	s.metrics.ModerationAction("reject", err)
	if err != nil {
		slog.Error("event_reject_failed", "event_id", id, "error", err)
		return err
	}
	slog.Info("event_rejected", "event_id", id)
	return nil
}

// Watch streams the pending list on every snapshot.
func (s *ModerationService) Watch(ctx context.Context) <-chan []models.CommunityEvent {
	return watchView(ctx, s.view, func(events []models.CommunityEvent) []models.CommunityEvent {
		return events
	})
}

// WatchCount streams the pending count on every snapshot.
func (s *ModerationService) WatchCount(ctx context.Context) <-chan int {
	return watchView(ctx, s.view, func(events []models.CommunityEvent) int {
		return len(events)
	})
}
