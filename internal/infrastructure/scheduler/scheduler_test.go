package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "test job" }
func (j *fakeJob) Run(_ context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler() *Scheduler {
	cfg := DefaultSchedulerConfig()
	cfg.EnableMetrics = false
	return NewScheduler(cfg)
}

func TestSchedulerRegister(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "calculate_student_placements"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	// Names are unique.
	err := s.Register(&fakeJob{name: "calculate_student_placements"}, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&fakeJob{name: "x"}, nil), ErrNilSchedule)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "calculate_student_placements", infos[0].Name)
	assert.True(t, infos[0].Enabled)
	assert.False(t, infos[0].NextRun.IsZero())
}

func TestSchedulerRunNow(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "send_alerts"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "send_alerts")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), job.runs.Load())

	_, err = s.RunNow(context.Background(), "no_such_job")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSchedulerRunNowRecordsFailure(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "retry_notifications", err: errors.New("database down")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "retry_notifications")
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Error(t, result.Error)

	history := s.GetHistory(10)
	require.NotEmpty(t, history)
	assert.Equal(t, "retry_notifications", history[len(history)-1].JobName)
	assert.False(t, history[len(history)-1].Success)
}

func TestSchedulerStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&fakeJob{name: "noop"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	// Starting twice is an error.
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestSchedulerEnableDisable(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&fakeJob{name: "calculate_students_risk_level"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.DisableJob("calculate_students_risk_level"))
	info, err := s.GetJobInfo("calculate_students_risk_level")
	require.NoError(t, err)
	assert.False(t, info.Enabled)

	require.NoError(t, s.EnableJob("calculate_students_risk_level"))
	info, err = s.GetJobInfo("calculate_students_risk_level")
	require.NoError(t, err)
	assert.True(t, info.Enabled)

	assert.ErrorIs(t, s.DisableJob("missing"), ErrJobNotFound)
}
