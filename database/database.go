package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventboard-api/models"
	"eventboard-api/repositories"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens a gorm connection for driver (mysql, postgres or sqlite).
func Initialize(driver, databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(databaseURL)
	case "postgres":
		dialector = postgres.Open(databaseURL)
	case "sqlite":
		if databaseURL == "" {
			databaseURL = "file:events.db?_pragma=busy_timeout(5000)"
		}
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// GormLogLevel maps the service log level onto gorm's logger.
func GormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.CommunityEvent{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// Subscription queries order each status view by submission time
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_app_submitted ON community_events(app_id, submitted_at)").Error; err != nil {
		slog.Warn("index_create_failed", "index", "idx_events_app_submitted", "error", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_submitted_by ON community_events(submitted_by)").Error; err != nil {
		slog.Warn("index_create_failed", "index", "idx_events_submitted_by", "error", err)
	}

	return nil
}

type seedEvent struct {
	draft    models.Draft
	approved bool
}

// SeedData populates an empty collection with sample events for development.
func SeedData(ctx context.Context, store repositories.EventStore) error {
	for _, status := range []models.EventStatus{models.StatusPending, models.StatusApproved} {
		n, err := countStatus(ctx, store, status)
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("seed_skipped", "reason", "collection already has events")
			return nil
		}
	}

	base := time.Now().UTC().Truncate(24 * time.Hour)
	samples := []seedEvent{
		{
			draft: models.Draft{
				Title:          "Pride Picnic",
				Description:    "Potluck in the park. Bring a **dish** to share and a blanket.",
				Date:           base.AddDate(0, 0, 7),
				Time:           "12:00 - 16:00",
				Location:       "Discovery Green",
				Type:           models.EventTypeInPerson,
				CommunityFocus: models.FocusSet{models.FocusTrans, models.FocusLGBT},
			},
			approved: true,
		},
		{
			draft: models.Draft{
				Title:          "Nonbinary Peer Support Circle",
				Description:    "A facilitated online support group. Cameras optional.",
				Date:           base.AddDate(0, 0, 3),
				Time:           "19:00",
				Location:       "Online",
				EventLink:      "https://example.org/support-circle",
				Type:           models.EventTypeRemote,
				CommunityFocus: models.FocusSet{models.FocusNonbinary, models.FocusTrans},
			},
			approved: true,
		},
		{
			draft: models.Draft{
				Title:          "Lunar New Year Potluck",
				Description:    "Dumplings, games and good company.",
				Date:           base.AddDate(0, 0, 21),
				Location:       "Community Center, Room 2",
				Type:           models.EventTypeInPerson,
				CommunityFocus: models.FocusSet{models.FocusAAPI, models.FocusLGBT},
			},
			approved: true,
		},
		{
			draft: models.Draft{
				Title:          "Queer Salsa Night",
				Description:    "Beginner lesson at 8, open floor after.",
				Date:           base.AddDate(0, 0, 10),
				Time:           "20:00",
				Location:       "Casa Cultural",
				Type:           models.EventTypeInPerson,
				CommunityFocus: models.FocusSet{models.FocusLatinx, models.FocusLGBT},
			},
		},
	}

	for _, sample := range samples {
		id, err := store.Insert(ctx, sample.draft.ToEvent("seed"))
		if err != nil {
			slog.Warn("seed_event_failed", "title", sample.draft.Title, "error", err)
			continue
		}
		if sample.approved {
			if err := store.Update(ctx, id, repositories.Fields{repositories.FieldStatus: models.StatusApproved}); err != nil {
				slog.Warn("seed_approve_failed", "title", sample.draft.Title, "error", err)
			}
		}
	}

	slog.Info("seed_completed", "events", len(samples))
	return nil
}

func countStatus(ctx context.Context, store repositories.EventStore, status models.EventStatus) (int, error) {
	sub, err := store.Subscribe(ctx, repositories.Where(repositories.FieldStatus, string(status)))
	if err != nil {
		return 0, err
	}
	defer sub.Close()

	select {
	case snap, ok := <-sub.C:
		if !ok {
			return 0, fmt.Errorf("subscription closed before first snapshot")
		}
		if snap.Err != nil {
			return 0, snap.Err
		}
		return len(snap.Events), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
