package repositories

import (
	"context"
	"fmt"
	"sync"

	"eventboard-api/models"
)

// MemoryEventStore is an in-process document collection. Documents are
// returned in insertion order.
type MemoryEventStore struct {
	mu    sync.RWMutex
	docs  map[string]models.CommunityEvent
	order []string
	appID string
	opts  StoreOptions
	hub   *liveHub
}

func NewMemoryEventStore(appID string, opts StoreOptions) *MemoryEventStore {
	opts = opts.withDefaults()
	s := &MemoryEventStore{
		docs:  make(map[string]models.CommunityEvent),
		appID: appID,
		opts:  opts,
	}
	s.hub = newLiveHub(s.query, opts.Now)
	return s
}

func (s *MemoryEventStore) query(_ context.Context, f Filter) ([]models.CommunityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.CommunityEvent, 0)
	for _, id := range s.order {
		e := s.docs[id]
		if f.matches(e) {
			events = append(events, e)
		}
	}
	return cloneEvents(events), nil
}

func (s *MemoryEventStore) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	if err := f.validate(); err != nil {
		return nil, storeErr("subscribe", "", err)
	}
	return s.hub.subscribe(ctx, f)
}

func (s *MemoryEventStore) Insert(ctx context.Context, e models.CommunityEvent) (string, error) {
	s.mu.Lock()
	e.ID = s.opts.NewID()
	if _, exists := s.docs[e.ID]; exists {
		s.mu.Unlock()
		return "", storeErr("insert", e.ID, fmt.Errorf("duplicate id"))
	}
	e.AppID = s.appID
	e.SubmittedAt = s.opts.Now().UTC()
	e.CommunityFocus = models.NewFocusSet(e.CommunityFocus...)
	s.docs[e.ID] = e
	s.order = append(s.order, e.ID)
	s.mu.Unlock()

	s.refresh(ctx)
	return e.ID, nil
}

func (s *MemoryEventStore) Update(ctx context.Context, id string, fields Fields) error {
	s.mu.Lock()
	current, ok := s.docs[id]
	if !ok {
		s.mu.Unlock()
		return storeErr("update", id, ErrNotFound)
	}
	updated, _, err := applyFields(current, fields)
	if err != nil {
		s.mu.Unlock()
		return storeErr("update", id, err)
	}
	if !models.CanTransition(current.Status, updated.Status) {
		s.mu.Unlock()
		return storeErr("update", id, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, updated.Status))
	}
	s.docs[id] = updated
	s.mu.Unlock()

	s.refresh(ctx)
	return nil
}

func (s *MemoryEventStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.docs[id]; !ok {
		s.mu.Unlock()
		return storeErr("delete", id, ErrNotFound)
	}
	delete(s.docs, id)
	for i, docID := range s.order {
		if docID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.refresh(ctx)
	return nil
}

func (s *MemoryEventStore) Get(_ context.Context, id string) (models.CommunityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[id]
	if !ok {
		return models.CommunityEvent{}, storeErr("get", id, ErrNotFound)
	}
	return cloneEvents([]models.CommunityEvent{e})[0], nil
}

// Len reports the number of documents held.
func (s *MemoryEventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryEventStore) Close() error {
	s.hub.close()
	return nil
}

func (s *MemoryEventStore) refresh(ctx context.Context) {
	// In-process reads cannot fail.
	_ = s.hub.refresh(context.WithoutCancel(ctx))
}
