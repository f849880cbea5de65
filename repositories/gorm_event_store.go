package repositories

import (
	"context"
	"log/slog"

	"eventboard-api/models"

	"gorm.io/gorm"
)

// GormEventStore keeps the shared collection in a SQL database. Writes made
// through this store refresh its subscribers at once; writes made by other
// processes show up on the next Refresh.
type GormEventStore struct {
	repo *EventRepository
	opts StoreOptions
	hub  *liveHub
}

func NewGormEventStore(db *gorm.DB, appID string, opts StoreOptions) *GormEventStore {
	opts = opts.withDefaults()
	s := &GormEventStore{
		repo: NewEventRepository(db, appID),
		opts: opts,
	}
	s.hub = newLiveHub(s.repo.FindByField, opts.Now)
	return s
}

func (s *GormEventStore) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	if err := f.validate(); err != nil {
		return nil, storeErr("subscribe", "", err)
	}
	return s.hub.subscribe(ctx, f)
}

func (s *GormEventStore) Insert(ctx context.Context, e models.CommunityEvent) (string, error) {
	e.ID = s.opts.NewID()
	e.SubmittedAt = s.opts.Now().UTC()
	e.CommunityFocus = models.NewFocusSet(e.CommunityFocus...)
	if err := s.repo.Create(ctx, &e); err != nil {
		return "", storeErr("insert", e.ID, err)
	}
	s.afterWrite(ctx, "insert")
	return e.ID, nil
}

func (s *GormEventStore) Update(ctx context.Context, id string, fields Fields) error {
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return storeErr("update", id, err)
	}
	s.afterWrite(ctx, "update")
	return nil
}

func (s *GormEventStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete", id, err)
	}
	s.afterWrite(ctx, "delete")
	return nil
}

func (s *GormEventStore) Get(ctx context.Context, id string) (models.CommunityEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return models.CommunityEvent{}, storeErr("get", id, err)
	}
	return *event, nil
}

// Refresh re-reads every subscribed view and pushes changed snapshots.
func (s *GormEventStore) Refresh(ctx context.Context) error {
	return storeErr("refresh", "", s.hub.refresh(ctx))
}

func (s *GormEventStore) Close() error {
	s.hub.close()
	return nil
}

func (s *GormEventStore) afterWrite(ctx context.Context, op string) {
	if err := s.hub.refresh(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("subscription_refresh_failed", "op", op, "error", err)
	}
}
