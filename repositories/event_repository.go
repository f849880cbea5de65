package repositories

import (
	"context"
	"errors"
	"fmt"

	"eventboard-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepository reads and writes the community_events table of one application.
type EventRepository struct {
	db    *gorm.DB
	appID string
}

func NewEventRepository(db *gorm.DB, appID string) *EventRepository {
	return &EventRepository{db: db, appID: appID}
}

func (r *EventRepository) scoped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("app_id = ?", r.appID)
}

// FindByField returns the events whose field equals value, oldest submission first.
func (r *EventRepository) FindByField(ctx context.Context, f Filter) ([]models.CommunityEvent, error) {
	col, ok := filterColumns[f.Field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidField, f.Field)
	}

	var events []models.CommunityEvent
	err := r.scoped(ctx).
		Where(clause.Eq{Column: clause.Column{Name: col}, Value: f.Value}).
		Order("submitted_at ASC").
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// FindByID retrieves one event
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.CommunityEvent, error) {
	var event models.CommunityEvent
	err := r.scoped(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// Create stores a new event. The caller assigns ID and SubmittedAt.
func (r *EventRepository) Create(ctx context.Context, event *models.CommunityEvent) error {
	event.AppID = r.appID
	return r.db.WithContext(ctx).Create(event).Error
}

// UpdateFields writes only the named fields of one event, refusing status
// changes that CanTransition rejects.
func (r *EventRepository) UpdateFields(ctx context.Context, id string, fields Fields) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.CommunityEvent
		err := tx.Where("app_id = ? AND id = ?", r.appID, id).First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updated, columns, err := applyFields(current, fields)
		if err != nil {
			return err
		}
		if !models.CanTransition(current.Status, updated.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, updated.Status)
		}

		return tx.Model(&current).
			Where("app_id = ?", r.appID).
			Select(columns).
			Updates(updated).Error
	})
}

// Delete removes one event permanently
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result := r.scoped(ctx).Where("id = ?", id).Delete(&models.CommunityEvent{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
