package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/sabjimart/sabji-backend/pkg/logger"
)

const defaultInterval = time.Hour

type runRecorder interface {
	ObserveRun(job string, took time.Duration, end time.Time, err error)
}

type SchedulerParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Lock     Lock
	Metrics  runRecorder
	Interval time.Duration
}

// Scheduler runs every job once per interval, one replica at a time. The
// first pass starts immediately.
type Scheduler struct {
	logg     *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  runRecorder
	interval time.Duration
	now      func() time.Time
}

func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Lock == nil {
		return nil, errors.New("cron lock is required")
	}
	s := &Scheduler{
		logg:     params.Logger,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
		now:      time.Now,
	}
	for _, job := range params.Jobs {
		if job != nil {
			s.jobs = append(s.jobs, job)
		}
	}
	if len(s.jobs) == 0 {
		return nil, errors.New("at least one cron job is required")
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	return s, nil
}

func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "cron pass finished with errors", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick makes one pass over all jobs. A failing job does not stop the ones
// after it; their errors come back combined.
func (s *Scheduler) Tick(ctx context.Context) (err error) {
	held, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !held {
		s.logg.Info(ctx, "cron lock held elsewhere, skipping pass")
		return nil
	}
	defer func() {
		err = multierr.Append(err, s.lock.Release(context.WithoutCancel(ctx)))
	}()

	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return multierr.Append(err, ctx.Err())
		}
		if jobErr := s.runOne(ctx, job); jobErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", job.Name(), jobErr))
		}
	}
	return err
}

func (s *Scheduler) runOne(ctx context.Context, job Job) error {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	start := s.now()
	err := job.Run(ctx)
	end := s.now()
	if s.metrics != nil {
		s.metrics.ObserveRun(job.Name(), end.Sub(start), end, err)
	}

	ctx = s.logg.WithField(ctx, "duration_ms", end.Sub(start).Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron job failed", err)
		return err
	}
	s.logg.Info(ctx, "cron job done")
	return nil
}
