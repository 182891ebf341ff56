package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/libertypay/card-reconciliation/internal/service"
)

// Scheduler triggers unattended reconciliation runs on a cron expression.
// Runs use the configured workbook path and the default backdated run date.
type Scheduler struct {
	cron *cron.Cron
	svc  *service.ReconciliationService
	log  zerolog.Logger
}

func New(svc *service.ReconciliationService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		svc:  svc,
		log:  log,
	}
}

// Start registers the schedule and starts the cron loop. An empty spec is
// a no-op.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		outcome, err := s.svc.Run(ctx, service.RunOptions{})
		if err != nil {
			s.log.Error().Err(err).Msg("scheduled reconciliation run failed")
			return
		}
		s.log.Info().
			Str("run_date", outcome.RunDate).
			Str("results_path", outcome.ResultsPath).
			Msg("scheduled reconciliation run complete")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("schedule", spec).Msg("reconciliation scheduler started")
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
