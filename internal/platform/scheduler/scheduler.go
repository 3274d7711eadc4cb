// Package scheduler wraps robfig/cron behind a small injected abstraction so
// the due-task sweep can be triggered by the clock in production and by hand
// in tests.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler registers jobs against cron expressions.
type Scheduler interface {
	Add(spec string, job Job) error
	Start()
	Stop()
}

type cronScheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// NewCron builds a cron-backed scheduler in the given timezone.
func NewCron(timezone string, logger zerolog.Logger) (Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &cronScheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}, nil
}

func (s *cronScheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job.Run(context.Background()); err != nil {
			s.logger.Error().Err(err).Str("job", job.Name()).Msg("scheduled job failed")
			return
		}
		s.logger.Info().
			Str("job", job.Name()).
			Dur("took", time.Since(start)).
			Msg("scheduled job finished")
	})
	if err != nil {
		return fmt.Errorf("register job %s with spec %q: %w", job.Name(), spec, err)
	}
	return nil
}

func (s *cronScheduler) Start() { s.cron.Start() }

func (s *cronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
