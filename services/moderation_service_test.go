package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"eventboard-api/models"
	"eventboard-api/repositories"
)

func startModeration(t *testing.T, store repositories.EventStore) *ModerationService {
	t.Helper()
	svc := NewModerationService(store, nil)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(svc.Stop)
	waitFor(t, "first pending snapshot", func() bool { return !svc.Loading() })
	return svc
}

func TestModerationTracksPendingEvents(t *testing.T) {
	store := newTestStore()
	defer store.Close()
	ctx := context.Background()
	svc := startModeration(t, store)

	counts := svc.WatchCount(ctx)
	if n := next(t, counts); n != 0 {
		t.Fatalf("initial count = %d", n)
	}

	sub := NewSubmissionService(store, nil, nil, 0)
	for _, title := range []string{"One", "Two"} {
		d := picnicDraft()
		d.Title = title
		if _, err := sub.Submit(ctx, d, "u1"); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	waitFor(t, "two pending", func() bool { return svc.Count() == 2 })
	waitFor(t, "count stream to reach 2", func() bool {
		select {
		case n := <-counts:
			return n == 2
		default:
			return false
		}
	})
	if got := eventTitles(svc.Pending()); !reflect.DeepEqual(got, []string{"One", "Two"}) {
		t.Errorf("pending = %v", got)
	}
}

func TestApproveChangesOnlyStatus(t *testing.T) {
	store := newTestStore()
	defer store.Close()
	ctx := context.Background()
	svc := startModeration(t, store)

	res, _ := NewSubmissionService(store, nil, nil, 0).Submit(ctx, picnicDraft(), "u1")
	before, _ := store.Get(ctx, res.ID)
	waitFor(t, "pending event", func() bool { return svc.Count() == 1 })

	if err := svc.Approve(ctx, res.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	after, _ := store.Get(ctx, res.ID)
	if after.Status != models.StatusApproved {
		t.Fatalf("status = %s", after.Status)
	}
	after.Status = before.Status
	if !reflect.DeepEqual(before, after) {
		t.Errorf("approve changed more than status:\nbefore %+v\nafter  %+v", before, after)
	}
	waitFor(t, "pending view to empty", func() bool { return svc.Count() == 0 })

	// idempotent
	if err := svc.Approve(ctx, res.ID); err != nil {
		t.Fatalf("second Approve: %v", err)
	}
	again, _ := store.Get(ctx, res.ID)
	if again.Status != models.StatusApproved {
		t.Errorf("status after second approve = %s", again.Status)
	}
}

func TestRejectDeletesPermanently(t *testing.T) {
	store := newTestStore()
	defer store.Close()
	ctx := context.Background()
	svc := startModeration(t, store)
	discovery := NewDiscoveryService(store, nil)
	if err := discovery.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer discovery.Stop()

	res, _ := NewSubmissionService(store, nil, nil, 0).Submit(ctx, picnicDraft(), "u1")
	waitFor(t, "pending event", func() bool { return svc.Count() == 1 })

	if err := svc.Reject(ctx, res.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	waitFor(t, "pending view to empty", func() bool { return svc.Count() == 0 })

	if _, err := store.Get(ctx, res.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Get after reject = %v", err)
	}
	if err := svc.Approve(ctx, res.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("approve after reject = %v", err)
	}
	if err := svc.Reject(ctx, res.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("second reject = %v", err)
	}
	for _, e := range discovery.Events() {
		if e.ID == res.ID {
			t.Fatal("rejected event visible in approved view")
		}
	}
}

func TestModerationStopClosesStreams(t *testing.T) {
	store := newTestStore()
	defer store.Close()
	svc := NewModerationService(store, nil)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	list := svc.Watch(context.Background())
	next(t, list)
	svc.Stop()

	waitFor(t, "watch channel to close", func() bool {
		select {
		case _, ok := <-list:
			return !ok
		default:
			return false
		}
	})
	if _, ok := <-svc.Watch(context.Background()); ok {
		t.Error("watch after Stop delivered a value")
	}
}

func TestWatchEndsWithContext(t *testing.T) {
	store := newTestStore()
	defer store.Close()
	svc := startModeration(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	counts := svc.WatchCount(ctx)
	next(t, counts)
	cancel()

	waitFor(t, "count channel to close", func() bool {
		select {
		case _, ok := <-counts:
			return !ok
		default:
			return false
		}
	})
}

func TestViewKeepsLastSnapshotOnError(t *testing.T) {
	store := newTestStore()
	defer store.Close()
	ctx := context.Background()

	res, _ := NewSubmissionService(store, nil, nil, 0).Submit(ctx, picnicDraft(), "u1")
	view := newLiveView("pending", repositories.Where(repositories.FieldStatus, string(models.StatusPending)))
	view.apply(repositories.Snapshot{Events: []models.CommunityEvent{{ID: res.ID, Title: "Pride Picnic"}}})
	view.apply(repositories.Snapshot{Err: errors.New("permission denied")})

	if view.isLoading() {
		t.Error("loading flag still set after an error")
	}
	if got := eventTitles(view.snapshot()); !reflect.DeepEqual(got, []string{"Pride Picnic"}) {
		t.Errorf("view after error = %v", got)
	}
}
