package monitor

import (
	"context"
	"time"

	"vitals-monitor/internal/infra"
)

// shutdownGrace bounds how long a session interrupted by shutdown may spend
// publishing its diagnosis.
const shutdownGrace = 2 * time.Second

// Run drives the session through its whole lifecycle: wait the warm-up delay,
// sample once per tick period until the cap, then diagnose. Cancelling ctx
// during warm-up ends the session without a diagnosis; cancelling it while
// sampling diagnoses whatever was collected.
func (s *Session) Run(ctx context.Context) error {
	ctx = infra.WithCorrelationID(ctx, s.id)

	if err := s.Schedule(); err != nil {
		return err
	}
	s.logf(ctx, "session %s: scheduled, sampling starts in %s", s.cfg.Name, s.cfg.WarmUp)

	warmUp := s.clock.Timer(s.cfg.WarmUp)
	select {
	case <-ctx.Done():
		warmUp.Stop()
		if err := s.Abort(); err != nil {
			return err
		}
		s.logf(ctx, "session %s: cancelled during warm-up: %v", s.cfg.Name, ctx.Err())
		return ctx.Err()
	case <-warmUp.C:
	}

	if err := s.Begin(); err != nil {
		return err
	}
	s.logf(ctx, "session %s: sampling every %s, cap %d", s.cfg.Name, s.cfg.TickPeriod, s.cfg.SampleCap)

	ticker := s.clock.Ticker(s.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Deactivate(); err != nil {
				return err
			}
			s.logf(ctx, "session %s: stopping early: %v", s.cfg.Name, ctx.Err())
			if err := s.finish(ctx, true); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
		}

		over, err := s.Tick()
		if err != nil {
			return err
		}
		if over {
			ticker.Stop()
			return s.finish(ctx, false)
		}
	}
}

func (s *Session) finish(ctx context.Context, interrupted bool) error {
	if interrupted {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
	}

	summary, err := s.Finish(ctx)
	if err != nil {
		return err
	}
	s.logf(ctx, "session %s: diagnosis %s over %d readings", s.cfg.Name, summary.Classification, summary.Count)
	return nil
}
