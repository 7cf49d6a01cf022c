package scheduler

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/config"
	"github.com/noah-isme/sma-academic-core/pkg/jobs"
)

type enqueuerStub struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (e *enqueuerStub) Enqueue(job jobs.Job) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	e.jobs = append(e.jobs, job)
	return "job-1", nil
}

var sessionsCfg = config.SessionsConfig{SemesterHorizonMonths: 5, WeeklyHorizonDays: 14, RetentionKeepYears: 2}

func TestNewRegistersConfiguredTriggers(t *testing.T) {
	s, err := New(config.CronConfig{
		SemesterSpec:  "0 2 1 1,7 *",
		WeeklySpec:    "0 3 * * 0",
		RetentionSpec: "",
	}, sessionsCfg, &enqueuerStub{}, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"semester", "weekly"}, s.Entries())
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	_, err := New(config.CronConfig{WeeklySpec: "every tuesday"}, sessionsCfg, &enqueuerStub{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weekly")
}

func TestTriggerEnqueuesPayload(t *testing.T) {
	stub := &enqueuerStub{}
	s, err := New(config.CronConfig{RetentionSpec: "@daily"}, sessionsCfg, stub, nil)
	require.NoError(t, err)

	entry := s.cron.Entry(s.entries["retention"])
	entry.Job.Run()

	require.Len(t, stub.jobs, 1)
	assert.Equal(t, service.JobPurgeSessions, stub.jobs[0].Kind)
	assert.Equal(t, service.PurgeSessionsJob{Trigger: "retention", KeepYears: 2}, stub.jobs[0].Payload)
}

func TestTriggerSwallowsEnqueueError(t *testing.T) {
	stub := &enqueuerStub{err: errors.New("queue not started")}
	s, err := New(config.CronConfig{WeeklySpec: "@weekly"}, sessionsCfg, stub, nil)
	require.NoError(t, err)

	s.cron.Entry(s.entries["weekly"]).Job.Run()

	assert.Empty(t, stub.jobs)
}
