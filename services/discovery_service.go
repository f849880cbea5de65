package services

import (
	"context"

	"eventboard-api/models"
	"eventboard-api/repositories"
)

// DiscoveryService keeps the live approved view and derives filtered lists from it.
type DiscoveryService struct {
	store repositories.EventStore
	view  *liveView
}

func NewDiscoveryService(store repositories.EventStore, metrics *Metrics) *DiscoveryService {
	s := &DiscoveryService{
		store: store,
		view:  newLiveView("approved", repositories.Where(repositories.FieldStatus, string(models.StatusApproved))),
	}
	s.view.onSnapshot = func(events []models.CommunityEvent) {
		metrics.ViewSize("approved", len(events))
	}
	return s
}

func (s *DiscoveryService) Start(ctx context.Context) error {
	return s.view.start(ctx, s.store)
}

func (s *DiscoveryService) Stop() {
	s.view.stop()
}

// Events returns the latest approved snapshot in store order.
func (s *DiscoveryService) Events() []models.CommunityEvent {
	return s.view.snapshot()
}

// View applies state to the cached approved list.
func (s *DiscoveryService) View(state FilterState) []models.CommunityEvent {
	return FilterEvents(s.view.snapshot(), state)
}

func (s *DiscoveryService) Loading() bool {
	return s.view.isLoading()
}

// Watch streams the filtered list, recomputed on every approved snapshot.
func (s *DiscoveryService) Watch(ctx context.Context, state FilterState) <-chan []models.CommunityEvent {
	return watchView(ctx, s.view, func(events []models.CommunityEvent) []models.CommunityEvent {
		return FilterEvents(events, state)
	})
}
