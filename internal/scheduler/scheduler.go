// Package scheduler runs the periodic maintenance jobs: the stale
// reservation sweep, the KPI report and the refresh-token purge.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/metrics"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once as soon as the scheduler starts.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

type jobState struct {
	Job
	running atomic.Bool
}

// Scheduler ticks every job on its own goroutine.  A tick that arrives
// while the previous run of the same job is still going is skipped, and
// with a Locker only one instance across the deployment runs a job at a
// time.
type Scheduler struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	locker  Locker
	lockTTL time.Duration

	jobs   map[string]*jobState
	order  []string
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewScheduler builds an empty scheduler.  locker may be nil.
func NewScheduler(log *zap.Logger, m *metrics.Metrics, locker Locker, lockTTL time.Duration) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &Scheduler{
		log:     log,
		metrics: m,
		locker:  locker,
		lockTTL: lockTTL,
		jobs:    map[string]*jobState{},
		stopCh:  make(chan struct{}),
	}
}

// Add registers a job.  It must be called before Start.
func (s *Scheduler) Add(j Job) {
	if _, dup := s.jobs[j.Name]; !dup {
		s.order = append(s.order, j.Name)
	}
	s.jobs[j.Name] = &jobState{Job: j}
}

// Start launches one goroutine per job.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting scheduler", zap.Strings("jobs", s.order))
	for _, name := range s.order {
		j := s.jobs[name]
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

// Stop signals every loop to exit and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		s.log.Info("stopping scheduler")
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j *jobState) {
	defer s.wg.Done()
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	if j.RunOnStart {
		s.runOnce(ctx, j)
	}
	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, j)
		case <-s.stopCh:
			s.log.Info("job stopped", zap.String("job", j.Name))
			return
		case <-ctx.Done():
			s.log.Info("job cancelled", zap.String("job", j.Name))
			return
		}
	}
}

// ErrUnknownJob is returned for a job name that was never added.
var ErrUnknownJob = errors.New("unknown job")

// RunNow runs the named job immediately under the same guards as a tick.
// It reports whether the job actually ran.
func (s *Scheduler) RunNow(ctx context.Context, name string) (bool, error) {
	j, ok := s.jobs[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.runOnce(ctx, j)
}

// RunWith runs fn in place of the named job's own work, under that job's
// guards: it is skipped while a run of the job is in progress here or,
// with a Locker, on another instance.  Manual triggers use it to get at
// the job's result.
func (s *Scheduler) RunWith(ctx context.Context, name string, fn func(ctx context.Context) error) (bool, error) {
	j, ok := s.jobs[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.guarded(ctx, j, fn)
}

func (s *Scheduler) runOnce(ctx context.Context, j *jobState) (bool, error) {
	return s.guarded(ctx, j, j.Run)
}

func (s *Scheduler) guarded(ctx context.Context, j *jobState, run func(ctx context.Context) error) (bool, error) {
	if !j.running.CompareAndSwap(false, true) {
		s.log.Debug("job still running, skipping tick", zap.String("job", j.Name))
		s.metrics.JobRun(j.Name, "skipped", 0)
		return false, nil
	}
	defer j.running.Store(false)

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, j.Name, s.lockTTL)
		switch {
		case err != nil:
			// Redis unavailable: fall back to the in-process guard only.
			s.log.Warn("job lock unavailable", zap.String("job", j.Name), zap.Error(err))
		case !ok:
			s.log.Debug("job locked by another instance", zap.String("job", j.Name))
			s.metrics.JobRun(j.Name, "locked", 0)
			return false, nil
		default:
			defer release()
		}
	}

	start := time.Now()
	err := run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		s.log.Error("job failed", zap.String("job", j.Name), zap.Duration("took", elapsed), zap.Error(err))
		s.metrics.JobRun(j.Name, "error", elapsed.Seconds())
		return true, err
	}
	s.log.Debug("job done", zap.String("job", j.Name), zap.Duration("took", elapsed))
	s.metrics.JobRun(j.Name, "ok", elapsed.Seconds())
	return true, nil
}
