// Package app wires the service: configuration, then the store handle, then
// identity, then the workflows, each started only after its dependencies.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"eventboard-api/config"
	"eventboard-api/database"
	"eventboard-api/jobs"
	"eventboard-api/repositories"
	"eventboard-api/services"

	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	Config   *config.Config
	Store    repositories.EventStore
	Identity *services.IdentityService
	Metrics  *services.Metrics
	Registry *prometheus.Registry

	Notifications *services.NotificationService
	Submission    *services.SubmissionService
	Moderation    *services.ModerationService
	Discovery     *services.DiscoveryService

	watch  *jobs.StoreWatchJob
	digest *jobs.DigestJob
}

// New opens the configured store and starts every workflow.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, watchable, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	a, err := NewWithStore(ctx, cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	if watchable != nil && cfg.WatchInterval > 0 {
		a.watch = jobs.NewStoreWatchJob(watchable, cfg.WatchInterval)
		a.watch.Start()
	}
	return a, nil
}

func openStore(cfg *config.Config) (repositories.EventStore, jobs.Refresher, error) {
	if cfg.DatabaseDriver == "" || cfg.DatabaseDriver == "memory" {
		slog.Info("store_opened", "driver", "memory", "app_id", cfg.AppID)
		return repositories.NewMemoryEventStore(cfg.AppID, repositories.StoreOptions{}), nil, nil
	}

	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, database.GormLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}

	store := repositories.NewGormEventStore(db, cfg.AppID, repositories.StoreOptions{})
	slog.Info("store_opened", "driver", cfg.DatabaseDriver, "app_id", cfg.AppID)
	return store, store, nil
}

// NewWithStore builds the application around an already open store. The
// store is closed by Close.
func NewWithStore(ctx context.Context, cfg *config.Config, store repositories.EventStore) (*App, error) {
	registry := prometheus.NewRegistry()
	metrics := services.NewMetrics(registry)

	a := &App{
		Config:   cfg,
		Store:    store,
		Identity: services.NewIdentityService(cfg.JWTSecret, cfg.SessionTTL, cfg.ModeratorPasswordHash),
		Metrics:  metrics,
		Registry: registry,
	}

	if cfg.SeedData {
		if err := database.SeedData(ctx, store); err != nil {
			slog.Warn("seed_failed", "error", err)
		}
	}

	a.Notifications = services.NewNotificationService(services.NewSender(cfg), cfg.ModeratorEmails, metrics)
	a.Submission = services.NewSubmissionService(store, a.Notifications, metrics, cfg.ConfirmationTTL)
	a.Moderation = services.NewModerationService(store, metrics)
	a.Discovery = services.NewDiscoveryService(store, metrics)

	if err := a.Moderation.Start(ctx); err != nil {
		return nil, fmt.Errorf("start moderation view: %w", err)
	}
	if err := a.Discovery.Start(ctx); err != nil {
		a.Moderation.Stop()
		return nil, fmt.Errorf("start discovery view: %w", err)
	}

	if cfg.DigestSchedule != "" && len(cfg.ModeratorEmails) > 0 {
		digest, err := jobs.NewDigestJob(cfg.DigestSchedule, a.Moderation, a.Notifications)
		if err != nil {
			a.Discovery.Stop()
			a.Moderation.Stop()
			return nil, err
		}
		a.digest = digest
		a.digest.Start()
	}

	return a, nil
}

// Close stops jobs and views, waits for pending notifications and closes the store.
func (a *App) Close() error {
	if a.digest != nil {
		a.digest.Stop()
	}
	if a.watch != nil {
		a.watch.Stop()
	}
	a.Discovery.Stop()
	a.Moderation.Stop()
	a.Submission.Wait()
	return a.Store.Close()
}
