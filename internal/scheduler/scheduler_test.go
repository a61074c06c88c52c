package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLockerExcludesSecondHolder(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	l := NewRedisLocker(rdb)

	release, ok, err := l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("lock:job:sweep"))

	_, ok, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists("lock:job:sweep"))

	_, ok, err = l.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	l := NewRedisLocker(rdb)

	release, ok, err := l.Acquire(ctx, "report", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = l.Acquire(ctx, "report", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	release()
	assert.True(t, mr.Exists("lock:job:report"))
}

func TestRunNowSkipsWhileRunning(t *testing.T) {
	s := NewScheduler(zap.NewNop(), nil, nil, 0)
	started := make(chan struct{})
	unblock := make(chan struct{})
	var runs atomic.Int32
	s.Add(Job{Name: "slow", Interval: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		close(started)
		<-unblock
		return nil
	}})

	done := make(chan bool)
	go func() {
		ran, _ := s.RunNow(context.Background(), "slow")
		done <- ran
	}()
	<-started

	ran, err := s.RunNow(context.Background(), "slow")
	require.NoError(t, err)
	assert.False(t, ran)

	close(unblock)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunNowRespectsLock(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)
	locker := NewRedisLocker(rdb)
	s := NewScheduler(zap.NewNop(), nil, locker, time.Minute)
	var runs atomic.Int32
	s.Add(Job{Name: "sweep", Interval: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	held, ok, err := locker.Acquire(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ran, err := s.RunNow(ctx, "sweep")
	require.NoError(t, err)
	assert.False(t, ran)

	held()
	ran, err = s.RunNow(ctx, "sweep")
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunNowRunsWhenRedisIsDown(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewScheduler(zap.NewNop(), nil, NewRedisLocker(rdb), time.Minute)
	s.Add(Job{Name: "sweep", Interval: time.Hour, Run: func(context.Context) error { return nil }})
	mr.Close()

	ran, err := s.RunNow(context.Background(), "sweep")
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestRunNowReturnsJobError(t *testing.T) {
	s := NewScheduler(zap.NewNop(), nil, nil, 0)
	boom := errors.New("boom")
	s.Add(Job{Name: "bad", Interval: time.Hour, Run: func(context.Context) error { return boom }})

	ran, err := s.RunNow(context.Background(), "bad")
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)

	ran, err = s.RunNow(context.Background(), "missing")
	assert.False(t, ran)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRunWithSharesTheJobGuard(t *testing.T) {
	s := NewScheduler(zap.NewNop(), nil, nil, 0)
	started := make(chan struct{})
	unblock := make(chan struct{})
	s.Add(Job{Name: ExpirePendingJob, Interval: time.Hour, Run: func(context.Context) error {
		close(started)
		<-unblock
		return nil
	}})

	done := make(chan bool)
	go func() {
		ran, _ := s.RunNow(context.Background(), ExpirePendingJob)
		done <- ran
	}()
	<-started

	called := false
	ran, err := s.RunWith(context.Background(), ExpirePendingJob, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)
	assert.False(t, called)

	close(unblock)
	require.True(t, <-done)

	ran, err = s.RunWith(context.Background(), ExpirePendingJob, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, called)

	_, err = s.RunWith(context.Background(), "missing", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownJob)
}

type countingExpirer struct{ calls atomic.Int32 }

func (c *countingExpirer) ExpireStale(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

type countingReporter struct{ calls atomic.Int32 }

func (c *countingReporter) Generate(context.Context) (model.KPIReport, error) {
	c.calls.Add(1)
	return model.KPIReport{}, nil
}

func TestStartTicksJobsUntilStopped(t *testing.T) {
	exp := &countingExpirer{}
	rep := &countingReporter{}
	s := NewScheduler(zap.NewNop(), nil, nil, 0)
	s.Add(ExpirePending(exp, 10*time.Millisecond))
	s.Add(KPIReport(rep, time.Hour))

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return exp.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	after := exp.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, exp.calls.Load())
	assert.Equal(t, int32(0), rep.calls.Load())
}

func TestStartStopsOnContextCancel(t *testing.T) {
	exp := &countingExpirer{}
	s := NewScheduler(zap.NewNop(), nil, nil, 0)
	s.Add(ExpirePending(exp, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return exp.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

type batchPurger struct {
	batches []int64
	cutoffs []time.Time
}

func (p *batchPurger) PurgeStale(_ context.Context, cutoff time.Time, limit int) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	n := p.batches[0]
	p.batches = p.batches[1:]
	return n, nil
}

func TestPurgeTokensLoopsUntilShortBatch(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &batchPurger{batches: []int64{purgeBatch, purgeBatch, 3}}
	job := PurgeTokens(p, time.Hour, 24*time.Hour, func() time.Time { return now })

	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, p.cutoffs, 3)
	assert.Equal(t, now.Add(-24*time.Hour), p.cutoffs[0])
	assert.Equal(t, PurgeTokensJob, job.Name)
}
