package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eventboard-api/models"
	"eventboard-api/repositories"
)

// DefaultConfirmationTTL is how long the "submitted for review" notice stays up.
const DefaultConfirmationTTL = 5 * time.Second

// SubmissionNotifier is told about every accepted submission.
type SubmissionNotifier interface {
	NotifySubmitted(ctx context.Context, event models.CommunityEvent) error
}

// Confirmation is the transient notice shown after a successful submit. The
// client clears its form and hides the notice at ExpiresAt.
type Confirmation struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SubmitResult struct {
	ID           string       `json:"id"`
	Confirmation Confirmation `json:"confirmation"`
}

type SubmissionService struct {
	store    repositories.EventStore
	notifier SubmissionNotifier
	metrics  *Metrics
	ttl      time.Duration
	now      func() time.Time

	pending sync.WaitGroup
}

func NewSubmissionService(store repositories.EventStore, notifier SubmissionNotifier, metrics *Metrics, ttl time.Duration) *SubmissionService {
	if ttl <= 0 {
		ttl = DefaultConfirmationTTL
	}
	return &SubmissionService{
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Submit validates the draft and writes it as a pending event. A draft that
// fails validation never reaches the store. Store failures are returned as
// *repositories.StoreError and are not retried.
func (s *SubmissionService) Submit(ctx context.Context, draft models.Draft, identity string) (SubmitResult, error) {
	draft.Normalize()
	if err := models.ValidateSubmission(draft, identity); err != nil {
		s.metrics.SubmissionRejected()
		slog.Info("submission_rejected", "submitted_by", identity, "error", err)
		return SubmitResult{}, err
	}

	event := draft.ToEvent(identity)
	id, err := s.store.Insert(ctx, event)
	if err != nil {
		s.metrics.SubmissionFailed()
		slog.Error("submission_failed", "submitted_by", identity, "error", err)
		return SubmitResult{}, err
	}
	event.ID = id

	s.metrics.SubmissionAccepted()
	slog.Info("event_submitted", "event_id", id, "submitted_by", identity, "title", event.Title)

	if s.notifier != nil {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			if err := s.notifier.NotifySubmitted(context.WithoutCancel(ctx), event); err != nil {
				slog.Warn("submission_notify_failed", "event_id", id, "error", err)
			}
		}()
	}

	return SubmitResult{
		ID: id,
		Confirmation: Confirmation{
			Message:   "Thanks! Your event was submitted for review.",
			ExpiresAt: s.now().Add(s.ttl),
		},
	}, nil
}

// Wait blocks until in-flight notifications have finished.
func (s *SubmissionService) Wait() {
	s.pending.Wait()
}
