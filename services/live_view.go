package services

import (
	"context"
	"log/slog"
	"sync"

	"eventboard-api/models"
	"eventboard-api/repositories"
)

// liveView owns one standing subscription. Its consumer goroutine is the only
// writer of the cached list; every snapshot replaces the list wholesale.
type liveView struct {
	name   string
	filter repositories.Filter

	mu       sync.RWMutex
	events   []models.CommunityEvent
	loading  bool
	sub      *repositories.Subscription
	watchers map[int]*watcher
	nextID   int
	stopped  bool

	onSnapshot func([]models.CommunityEvent)
	done       chan struct{}
	once       sync.Once
}

type watcher struct {
	notify func([]models.CommunityEvent)
	close  func()
}

func newLiveView(name string, filter repositories.Filter) *liveView {
	return &liveView{
		name:     name,
		filter:   filter,
		events:   []models.CommunityEvent{},
		loading:  true,
		watchers: make(map[int]*watcher),
		done:     make(chan struct{}),
	}
}

func (v *liveView) start(ctx context.Context, store repositories.EventStore) error {
	sub, err := store.Subscribe(ctx, v.filter)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.sub = sub
	v.mu.Unlock()

	slog.Info("view_started", "view", v.name, "filter", v.filter.String())
	go v.run(sub)
	return nil
}

func (v *liveView) run(sub *repositories.Subscription) {
	defer v.shutdown()
	for snap := range sub.C {
		v.apply(snap)
	}
}

func (v *liveView) apply(snap repositories.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.loading = false
	if snap.Err != nil {
		slog.Warn("view_snapshot_failed", "view", v.name, "error", snap.Err)
		return
	}

	v.events = snap.Events
	for _, w := range v.watchers {
		w.notify(v.events)
	}
	if v.onSnapshot != nil {
		v.onSnapshot(v.events)
	}
}

// stop closes the subscription and waits for the consumer to exit.
func (v *liveView) stop() {
	v.mu.RLock()
	sub := v.sub
	v.mu.RUnlock()

	if sub == nil {
		v.shutdown()
		return
	}
	sub.Close()
	<-v.done
}

func (v *liveView) shutdown() {
	v.once.Do(func() {
		v.mu.Lock()
		v.stopped = true
		for id, w := range v.watchers {
			w.close()
			delete(v.watchers, id)
		}
		v.mu.Unlock()
		close(v.done)
		slog.Info("view_stopped", "view", v.name)
	})
}

func (v *liveView) snapshot() []models.CommunityEvent {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.events
}

func (v *liveView) isLoading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// addWatcher registers w and hands it the cached list unless the first
// snapshot is still outstanding. It reports false once the view has stopped.
func (v *liveView) addWatcher(w *watcher) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopped {
		return 0, false
	}
	id := v.nextID
	v.nextID++
	v.watchers[id] = w
	if !v.loading {
		w.notify(v.events)
	}
	return id, true
}

func (v *liveView) removeWatcher(id int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if w, ok := v.watchers[id]; ok {
		w.close()
		delete(v.watchers, id)
	}
}

// watchView streams fn(list) for every snapshot of v. The channel keeps only
// the newest value and closes when ctx ends or the view stops.
func watchView[T any](ctx context.Context, v *liveView, fn func([]models.CommunityEvent) T) <-chan T {
	ch := make(chan T, 1)
	w := &watcher{
		notify: func(events []models.CommunityEvent) { sendLatest(ch, fn(events)) },
		close:  func() { close(ch) },
	}

	id, ok := v.addWatcher(w)
	if !ok {
		close(ch)
		return ch
	}

	go func() {
		select {
		case <-ctx.Done():
			v.removeWatcher(id)
		case <-v.done:
		}
	}()
	return ch
}

func sendLatest[T any](ch chan T, value T) {
	select {
	case ch <- value:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- value
}
