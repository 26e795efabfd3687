// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/annix-labs/fieldflow/internal/shared/biztime"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// Sync and pipeline cadence. The frequent sync covers yesterday onward,
// the weekly pass re-reads a month to heal drift and missed webhooks.
const (
	syncInterval     = 5 * time.Minute
	syncDaysBack     = 1
	resyncDaysBack   = 30
	downloadInterval = 10 * time.Minute
	downloadBatch    = 10
	tokenSweepEvery  = time.Hour
	tokenHorizon     = time.Hour
)

// MeetingSyncer syncs every active connection and reports how many succeeded.
type MeetingSyncer interface {
	SyncAllActive(ctx context.Context, daysBack int) (int, error)
}

// RecordingProcessor drains a batch of pending recordings.
type RecordingProcessor interface {
	ProcessPending(ctx context.Context, limit int) (int, error)
}

// TokenRefresher proactively refreshes tokens expiring inside the horizon.
type TokenRefresher interface {
	RefreshExpiring(ctx context.Context, horizon time.Duration) (int, error)
}

// SchedulerManager manages all scheduled jobs using gocron v2.
// A single scheduler instance holds the sync, download and token sweep
// jobs so the worker has one lifecycle to manage.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
// It initializes gocron with the business timezone for cron expressions.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterSyncJobs registers the meeting reconciliation jobs:
// - Frequent sync every 5 minutes over the last day, starting immediately
// - Weekly deep resync over the last 30 days, Sunday 02:00 business timezone
func (m *SchedulerManager) RegisterSyncJobs(syncer MeetingSyncer) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(syncInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), syncInterval)
			defer cancel()
			m.runSync(ctx, syncer, syncDaysBack, "sync")
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("platform", "sync"),
		gocron.WithName("meeting-sync"),
	)
	if err != nil {
		return err
	}

	_, err = m.scheduler.NewJob(
		gocron.CronJob("0 2 * * 0", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			m.runSync(ctx, syncer, resyncDaysBack, "deep-resync")
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("platform", "resync"),
		gocron.WithName("meeting-deep-resync"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered meeting sync jobs",
		"interval", syncInterval,
		"deep_resync", "sunday 02:00",
		"deep_resync_days", resyncDaysBack,
	)
	return nil
}

func (m *SchedulerManager) runSync(ctx context.Context, syncer MeetingSyncer, daysBack int, job string) {
	m.logger.Debugw("meeting sync started", "job", job, "days_back", daysBack)

	startTime := biztime.NowUTC()
	count, err := syncer.SyncAllActive(ctx, daysBack)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("meeting sync failed",
			"job", job,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow("meeting sync completed",
			"job", job,
			"connections", count,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no connections to sync", "job", job)
	}
}

// RegisterRecordingJobs registers the recording pipeline drain:
// - Every 10 minutes, up to 10 pending recordings per pass
func (m *SchedulerManager) RegisterRecordingJobs(processor RecordingProcessor) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(downloadInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), downloadInterval)
			defer cancel()
			m.drainRecordings(ctx, processor)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("platform", "recordings"),
		gocron.WithName("recording-downloader"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered recording pipeline job",
		"interval", downloadInterval,
		"batch", downloadBatch,
	)
	return nil
}

func (m *SchedulerManager) drainRecordings(ctx context.Context, processor RecordingProcessor) {
	startTime := biztime.NowUTC()
	count, err := processor.ProcessPending(ctx, downloadBatch)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("recording pipeline pass failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow("recordings processed",
			"count", count,
			"duration", time.Since(startTime),
		)
	}
}

// RegisterTokenJobs registers the hourly proactive token refresh sweep.
func (m *SchedulerManager) RegisterTokenJobs(refresher TokenRefresher) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(tokenSweepEvery),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.sweepTokens(ctx, refresher)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("platform", "tokens"),
		gocron.WithName("token-refresh-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered token refresh sweep",
		"interval", tokenSweepEvery,
		"horizon", tokenHorizon,
	)
	return nil
}

func (m *SchedulerManager) sweepTokens(ctx context.Context, refresher TokenRefresher) {
	count, err := refresher.RefreshExpiring(ctx, tokenHorizon)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("token refresh sweep failed", "error", err)
		return
	}

	if count > 0 {
		m.logger.Infow("tokens refreshed proactively", "count", count)
	}
}

// ========================================
// Scheduler Lifecycle Methods
// ========================================

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
