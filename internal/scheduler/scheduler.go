package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Runner is one dispatch pass.
type Runner interface {
	Run(ctx context.Context) string
}

// Scheduler triggers a Runner on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	runner Runner
	log    zerolog.Logger
}

// New registers runner under spec, which accepts standard five-field cron
// expressions and descriptors such as "@every 1m".
func New(spec string, runner Runner, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.log.Info().Str("spec", spec).Msg("dispatch pass scheduled")
	return s, nil
}

func (s *Scheduler) tick() {
	s.log.Debug().Msg("running dispatch pass")
	summary := s.runner.Run(context.Background())
	s.log.Info().Str("summary", summary).Msg("dispatch pass finished")
}

func (s *Scheduler) Start() {
	s.log.Info().Msg("starting scheduler")
	s.cron.Start()
}

// Stop halts the schedule and returns a context that is done once any running
// pass has finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info().Msg("stopping scheduler")
	return s.cron.Stop()
}
