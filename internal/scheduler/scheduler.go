package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/config"
	"github.com/noah-isme/sma-academic-core/pkg/jobs"
)

type enqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

// Scheduler turns cron triggers into queued session maintenance jobs.
type Scheduler struct {
	cron    *cron.Cron
	queue   enqueuer
	logger  *zap.Logger
	entries map[string]cron.EntryID
}

// New registers the semester, weekly and retention triggers. Empty specs are skipped.
func New(cfg config.CronConfig, sessions config.SessionsConfig, queue enqueuer, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:    cron.New(),
		queue:   queue,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}

	triggers := []struct {
		name string
		spec string
		job  jobs.Job
	}{
		{"semester", cfg.SemesterSpec, jobs.Job{Kind: service.JobGenerateSessions, Payload: service.GenerateSessionsJob{Trigger: "semester", HorizonMonths: sessions.SemesterHorizonMonths}}},
		{"weekly", cfg.WeeklySpec, jobs.Job{Kind: service.JobGenerateSessions, Payload: service.GenerateSessionsJob{Trigger: "weekly", HorizonDays: sessions.WeeklyHorizonDays}}},
		{"retention", cfg.RetentionSpec, jobs.Job{Kind: service.JobPurgeSessions, Payload: service.PurgeSessionsJob{Trigger: "retention", KeepYears: sessions.RetentionKeepYears}}},
	}
	for _, t := range triggers {
		if t.spec == "" {
			continue
		}
		name, job := t.name, t.job
		id, err := s.cron.AddFunc(t.spec, func() { s.enqueue(name, job) })
		if err != nil {
			return nil, fmt.Errorf("register %s trigger %q: %w", name, t.spec, err)
		}
		s.entries[name] = id
	}
	return s, nil
}

// Entries returns the registered trigger names.
func (s *Scheduler) Entries() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// Start begins firing triggers in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started", zap.Int("entries", len(s.entries)))
}

// Stop halts the scheduler and waits for running triggers until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("cron scheduler stop timed out")
	}
}

func (s *Scheduler) enqueue(name string, job jobs.Job) {
	id, err := s.queue.Enqueue(job)
	if err != nil {
		s.logger.Error("enqueue cron job", zap.String("trigger", name), zap.String("kind", job.Kind), zap.Error(err))
		return
	}
	s.logger.Info("cron job enqueued", zap.String("trigger", name), zap.String("kind", job.Kind), zap.String("job_id", id))
}
