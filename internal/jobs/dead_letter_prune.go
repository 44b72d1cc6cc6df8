// File: internal/jobs/dead_letter_prune.go
package jobs

import (
	"context"
	"time"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/platform/metrics"
	"identity_sync_backend/internal/webhook"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const pruneRunTimeout = 5 * time.Minute

// DeadLetterPruneJob deletes dead letters older than the configured retention.
type DeadLetterPruneJob struct {
	deadLetters   webhook.FailedEventRepository
	metrics       *metrics.Metrics
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
	now           func() time.Time
}

func NewDeadLetterPruneJob(
	deadLetters webhook.FailedEventRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg *config.Config,
) *DeadLetterPruneJob {
	cl := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.SkipIfStillRunning(cl)),
	)

	return &DeadLetterPruneJob{
		deadLetters:   deadLetters,
		metrics:       m,
		logger:        logger.Named("DeadLetterPruneJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
		now:           time.Now,
	}
}

// SetupAndStart schedules and starts the cron job. A zero retention or an empty
// schedule leaves the job disabled.
func (j *DeadLetterPruneJob) SetupAndStart() error {
	if j.cfg.DeadLetterRetentionDays == 0 {
		j.logger.Info("Dead-letter retention disabled (DEAD_LETTER_RETENTION_DAYS=0). Job will not run.")
		return nil
	}
	jobSpec := j.cfg.DeadLetterPruneSchedule
	if jobSpec == "" {
		j.logger.Warn("Dead-letter prune schedule not defined (DEAD_LETTER_PRUNE_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule dead-letter prune job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Dead-letter prune job scheduled",
		zap.String("spec", jobSpec),
		zap.Int("retention_days", j.cfg.DeadLetterRetentionDays),
		zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *DeadLetterPruneJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneRunTimeout)
	defer cancel()
	_, _ = j.RunOnce(ctx)
}

// RunOnce deletes everything recorded before now minus the retention window.
func (j *DeadLetterPruneJob) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.now().AddDate(0, 0, -j.cfg.DeadLetterRetentionDays)
	j.logger.Info("Starting dead-letter prune run...", zap.Time("cutoff", cutoff))

	pruned, err := j.deadLetters.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("Dead-letter prune run failed", zap.Error(err))
		return 0, err
	}
	j.metrics.AddPruned(pruned)
	j.logger.Info("Dead-letter prune run completed", zap.Int64("dead_letters_pruned", pruned))
	return pruned, nil
}

// Stop gracefully stops the cron scheduler.
func (j *DeadLetterPruneJob) Stop() {
	if j.cronScheduler == nil {
		return
	}
	j.logger.Info("Stopping dead-letter prune scheduler...")
	stopCtx := j.cronScheduler.Stop()
	select {
	case <-stopCtx.Done():
		j.logger.Info("Dead-letter prune scheduler stopped gracefully.")
	case <-time.After(10 * time.Second):
		j.logger.Warn("Dead-letter prune scheduler stop timed out.")
	}
}
