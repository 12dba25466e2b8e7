package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/notification"
)

// NotificationPurgeJob deletes queued toasts that were never drained, e.g.
// because the browser session was abandoned.
type NotificationPurgeJob struct {
	notifications notification.Service
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
	now           func() time.Time
}

// NewNotificationPurgeJob creates a new NotificationPurgeJob.
func NewNotificationPurgeJob(
	notifications notification.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *NotificationPurgeJob {
	cl := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.SkipIfStillRunning(cl)),
	)

	return &NotificationPurgeJob{
		notifications: notifications,
		logger:        logger.Named("NotificationPurgeJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
		now:           time.Now,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *NotificationPurgeJob) SetupAndStart() error {
	jobSpec := j.cfg.NotificationPurgeSchedule
	if jobSpec == "" {
		j.logger.Warn("Notification purge schedule not defined (NOTIFICATION_PURGE_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule notification purge job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Notification purge job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

// Run purges notifications older than NOTIFICATION_RETENTION_HOURS.
func (j *NotificationPurgeJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.cfg.NotificationRetention)
	return j.notifications.PurgeOlderThan(ctx, cutoff)
}

func (j *NotificationPurgeJob) runJob() {
	j.logger.Info("Starting notification purge job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	purged, err := j.Run(ctx)
	if err != nil {
		j.logger.Error("Notification purge job run failed", zap.Error(err))
		return
	}
	j.logger.Info("Notification purge job run completed", zap.Int64("notifications_purged", purged))
}

// Stop gracefully stops the cron scheduler.
func (j *NotificationPurgeJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping notification purge job scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Notification purge job scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Notification purge job scheduler stop timed out.")
	}
}
