package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventboard-api/models"

	"github.com/robfig/cron/v3"
)

// PendingSource exposes the current review queue.
type PendingSource interface {
	Pending() []models.CommunityEvent
}

type DigestSender interface {
	SendPendingDigest(ctx context.Context, pending []models.CommunityEvent) error
}

// DigestJob emails moderators a summary of the review queue on a cron schedule.
type DigestJob struct {
	cron     *cron.Cron
	schedule string
	source   PendingSource
	sender   DigestSender
}

func NewDigestJob(schedule string, source PendingSource, sender DigestSender) (*DigestJob, error) {
	j := &DigestJob{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		schedule: schedule,
		source:   source,
		sender:   sender,
	}
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *DigestJob) Start() {
	slog.Info("digest_job_started", "schedule", j.schedule)
	j.cron.Start()
}

// Stop prevents new runs and waits for a running one to finish.
func (j *DigestJob) Stop() {
	<-j.cron.Stop().Done()
	slog.Info("digest_job_stopped")
}

func (j *DigestJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pending := j.source.Pending()
	if len(pending) == 0 {
		slog.Debug("digest_skipped", "reason", "no pending events")
		return
	}
	if err := j.sender.SendPendingDigest(ctx, pending); err != nil {
		slog.Error("digest_send_failed", "pending", len(pending), "error", err)
	}
}
