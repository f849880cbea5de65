package repositories

import (
	"context"
	"reflect"
	"sync"
	"time"

	"eventboard-api/models"
)

// Subscription is one live view of the store. C carries full snapshots; it
// holds at most one pending snapshot and a newer one replaces an unread older
// one. C is closed by Close or when the subscribing context ends.
type Subscription struct {
	C <-chan Snapshot

	ch      chan Snapshot
	done    chan struct{}
	filter  Filter
	hub     *liveHub
	last    []models.CommunityEvent
	hasLast bool
	once    sync.Once
}

func (s *Subscription) Filter() Filter {
	return s.filter
}

// Close unregisters the subscription and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// deliver must be called with the hub lock held; the hub is the only sender.
func (s *Subscription) deliver(snap Snapshot, force bool) {
	if snap.Err == nil {
		if !force && s.hasLast && reflect.DeepEqual(s.last, snap.Events) {
			return
		}
		s.last = snap.Events
		s.hasLast = true
		snap.Events = cloneEvents(snap.Events)
	}

	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

type queryFunc func(ctx context.Context, f Filter) ([]models.CommunityEvent, error)

// liveHub fans snapshots out to subscribers. Each refresh re-runs the query
// of every distinct filter and delivers the result to its subscribers.
type liveHub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	query  queryFunc
	now    func() time.Time
	closed bool
}

func newLiveHub(query queryFunc, now func() time.Time) *liveHub {
	return &liveHub{
		subs:  make(map[*Subscription]struct{}),
		query: query,
		now:   now,
	}
}

func (h *liveHub) subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	ch := make(chan Snapshot, 1)
	sub := &Subscription{
		C:      ch,
		ch:     ch,
		done:   make(chan struct{}),
		filter: f,
		hub:    h,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, storeErr("subscribe", "", ErrStoreClosed)
	}
	h.subs[sub] = struct{}{}
	events, err := h.query(context.WithoutCancel(ctx), f)
	sub.deliver(Snapshot{Events: events, Err: storeErr("subscribe", "", err), ReadAt: h.now()}, true)
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (h *liveHub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
	close(sub.done)
}

// refresh re-queries every subscribed filter and returns the first read error.
func (h *liveHub) refresh(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	groups := make(map[Filter][]*Subscription)
	for sub := range h.subs {
		groups[sub.filter] = append(groups[sub.filter], sub)
	}

	var firstErr error
	for f, subs := range groups {
		events, err := h.query(ctx, f)
		err = storeErr("refresh", "", err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		snap := Snapshot{Events: events, Err: err, ReadAt: h.now()}
		for _, sub := range subs {
			sub.deliver(snap, false)
		}
	}
	return firstErr
}

func (h *liveHub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *liveHub) close() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
