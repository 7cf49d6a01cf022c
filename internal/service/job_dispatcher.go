package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/dto"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/jobs"
	"github.com/noah-isme/sma-academic-core/pkg/logger"
	"github.com/noah-isme/sma-academic-core/pkg/middleware/requestid"
)

// Background job kinds.
const (
	JobGenerateSessions = "sessions.generate"
	JobPurgeSessions    = "sessions.purge"
)

const defaultJobLockTTL = 30 * time.Minute

// GenerateSessionsJob generates sessions from today through the horizon.
type GenerateSessionsJob struct {
	Trigger       string
	HorizonMonths int
	HorizonDays   int
	Overwrite     bool
}

// PurgeSessionsJob runs retention.
type PurgeSessionsJob struct {
	Trigger   string
	KeepYears int
}

type sessionRangeGenerator interface {
	GenerateRange(ctx context.Context, start, end time.Time, courseIDs []string, overwrite bool) (*dto.GenerateSessionsResult, error)
}

type sessionPurger interface {
	Purge(ctx context.Context, keepYears int) (*dto.PurgeSessionsResult, error)
}

type jobLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, name, token string) error
}

type jobMetrics interface {
	ObserveJob(kind string, err error, duration time.Duration)
}

type jobRegistrar interface {
	Handle(kind string, h jobs.Handler)
}

// JobDispatcher executes queued session maintenance jobs, one run per kind across replicas.
type JobDispatcher struct {
	generator sessionRangeGenerator
	retention sessionPurger
	locks     jobLocker
	metrics   jobMetrics
	logger    *zap.Logger
	lockTTL   time.Duration
	now       func() time.Time
}

// NewJobDispatcher constructs the dispatcher.
func NewJobDispatcher(generator sessionRangeGenerator, retention sessionPurger, locks jobLocker, metrics jobMetrics, logger *zap.Logger, lockTTL time.Duration) *JobDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = (*MetricsService)(nil)
	}
	if lockTTL <= 0 {
		lockTTL = defaultJobLockTTL
	}
	return &JobDispatcher{
		generator: generator,
		retention: retention,
		locks:     locks,
		metrics:   metrics,
		logger:    logger,
		lockTTL:   lockTTL,
		now:       time.Now,
	}
}

// Register binds the dispatcher's handlers to the queue.
func (d *JobDispatcher) Register(q jobRegistrar) {
	q.Handle(JobGenerateSessions, d.handleGenerate)
	q.Handle(JobPurgeSessions, d.handlePurge)
}

func (d *JobDispatcher) handleGenerate(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(GenerateSessionsJob)
	if !ok {
		d.logger.Error("invalid job payload", zap.String("job_id", job.ID), zap.String("kind", job.Kind))
		return nil
	}
	return d.run(ctx, job, func(ctx context.Context) error {
		start := models.DateOnly(d.now())
		end := start.AddDate(0, payload.HorizonMonths, payload.HorizonDays)
		_, err := d.generator.GenerateRange(ctx, start, end, nil, payload.Overwrite)
		if errors.Is(err, appErrors.ErrNoSchedules) {
			logger.WithContext(ctx, d.logger).Info("no class schedules to generate from",
				zap.String("trigger", payload.Trigger))
			return nil
		}
		return err
	})
}

func (d *JobDispatcher) handlePurge(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(PurgeSessionsJob)
	if !ok {
		d.logger.Error("invalid job payload", zap.String("job_id", job.ID), zap.String("kind", job.Kind))
		return nil
	}
	return d.run(ctx, job, func(ctx context.Context) error {
		_, err := d.retention.Purge(ctx, payload.KeepYears)
		return err
	})
}

// run executes fn while holding the lock for the job kind. A lock held elsewhere skips the run.
func (d *JobDispatcher) run(ctx context.Context, job jobs.Job, fn func(ctx context.Context) error) error {
	ctx = requestid.WithValue(ctx, job.ID)
	log := logger.WithContext(ctx, d.logger).With(zap.String("kind", job.Kind), zap.Int("attempt", job.Attempt))

	token, acquired, err := d.locks.Acquire(ctx, job.Kind, d.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire job lock: %w", err)
	}
	if !acquired {
		log.Info("job skipped, lock held by another instance")
		return nil
	}
	defer func() {
		if err := d.locks.Release(context.Background(), job.Kind, token); err != nil {
			log.Warn("release job lock", zap.Error(err))
		}
	}()

	started := time.Now()
	err = fn(ctx)
	d.metrics.ObserveJob(job.Kind, err, time.Since(started))
	if err != nil {
		log.Error("job failed", zap.Error(err))
		return err
	}
	log.Info("job completed", zap.Duration("duration", time.Since(started)))
	return nil
}
