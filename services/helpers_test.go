package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"eventboard-api/models"
	"eventboard-api/repositories"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestStore() *repositories.MemoryEventStore {
	n := 0
	return repositories.NewMemoryEventStore("test-app", repositories.StoreOptions{
		Now: func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("evt-%d", n)
		},
	})
}

// countingStore records writes and can be told to fail them.
type countingStore struct {
	repositories.EventStore

	mu        sync.Mutex
	inserted  []models.CommunityEvent
	updates   int
	deletes   int
	insertErr error
}

func (s *countingStore) Insert(ctx context.Context, e models.CommunityEvent) (string, error) {
	s.mu.Lock()
	s.inserted = append(s.inserted, e)
	err := s.insertErr
	s.mu.Unlock()
	if err != nil {
		return "", &repositories.StoreError{Op: "insert", Err: err}
	}
	return s.EventStore.Insert(ctx, e)
}

func (s *countingStore) Update(ctx context.Context, id string, fields repositories.Fields) error {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
	return s.EventStore.Update(ctx, id, fields)
}

func (s *countingStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()
	return s.EventStore.Delete(ctx, id)
}

func (s *countingStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted) + s.updates + s.deletes
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.CommunityEvent
	err    error
}

func (n *recordingNotifier) NotifySubmitted(_ context.Context, e models.CommunityEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func picnicDraft() models.Draft {
	return models.Draft{
		Title:          "Pride Picnic",
		Description:    "Potluck",
		Date:           day(2024, 6, 1),
		Location:       "Discovery Green",
		Type:           models.EventTypeInPerson,
		CommunityFocus: models.FocusSet{models.FocusTrans, models.FocusLGBT},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no value received")
	}
	var zero T
	return zero
}

func eventTitles(events []models.CommunityEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}
