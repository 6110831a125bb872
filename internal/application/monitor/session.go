package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"vitals-monitor/internal/application/diagnosis"
	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
)

// Logger defines the logging behaviour required by the monitor.
type Logger interface {
	Printf(ctx context.Context, format string, v ...any)
}

// SessionDeps are the collaborators of a session. Nil values fall back to the
// wall clock and sinks that discard their input.
type SessionDeps struct {
	Clock  clock.Clock
	Chart  domain.ChartSink
	Sink   domain.DiagnosisSink
	Logger Logger
}

// Session is the state record of one channel run: Idle → Scheduled →
// Sampling → Diagnosing → Done. Only the goroutine running the session
// mutates it; the mutex exists for snapshot readers.
type Session struct {
	cfg    domain.ChannelConfig
	id     string
	clock  clock.Clock
	chart  domain.ChartSink
	sink   domain.DiagnosisSink
	logger Logger

	mu      sync.RWMutex
	state   domain.State
	active  bool
	samples int
	history []domain.Reading
	summary *domain.Summary
}

func NewSession(cfg domain.ChannelConfig, deps SessionDeps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Chart == nil {
		deps.Chart = discardChart{}
	}
	if deps.Sink == nil {
		deps.Sink = discardSink{}
	}

	return &Session{
		cfg:     cfg,
		id:      uuid.NewString(),
		clock:   deps.Clock,
		chart:   deps.Chart,
		sink:    deps.Sink,
		logger:  deps.Logger,
		state:   domain.StateIdle,
		history: make([]domain.Reading, 0, cfg.SampleCap),
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Channel() string { return s.cfg.Name }

func (s *Session) Config() domain.ChannelConfig { return s.cfg }

// Schedule moves Idle → Scheduled.
func (s *Session) Schedule() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(domain.StateScheduled); err != nil {
		return err
	}
	infra.SessionStarted()
	return nil
}

// Begin moves Scheduled → Sampling and raises the active flag.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(domain.StateSampling); err != nil {
		return err
	}
	s.active = true
	return nil
}

// Deactivate clears the active flag. The next tick ends sampling and leads
// to the diagnosis. A session that was never scheduled cannot be deactivated.
func (s *Session) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateIdle {
		return fmt.Errorf("session %s: %w", s.cfg.Name, domain.ErrSessionNotStarted)
	}
	s.active = false
	return nil
}

// Tick takes one sample: generate, push to the chart, accumulate. It reports
// true when sampling is over, either because the cap was reached by this
// tick or because the session was deactivated; the caller must then Finish.
func (s *Session) Tick() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateSampling {
		return false, fmt.Errorf("session %s: %w: tick while %s", s.cfg.Name, domain.ErrInvalidTransition, s.state)
	}
	if !s.active || s.samples >= s.cfg.SampleCap {
		return true, nil
	}
	if err := s.transition(domain.StateSampling); err != nil {
		return false, err
	}

	reading := domain.Reading{
		Channel:   s.cfg.Name,
		Seq:       s.samples + 1,
		Value:     s.cfg.Generator.Next(),
		Unit:      s.cfg.Unit,
		Timestamp: s.clock.Now().UTC(),
	}

	s.chart.Push(s.cfg.Name, reading.Value)

	kept := s.accepts(reading.Value)
	if kept {
		s.history = append(s.history, reading)
	}
	s.samples++
	infra.RecordReading(s.cfg.Name, kept)

	return s.samples >= s.cfg.SampleCap, nil
}

func (s *Session) accepts(value float64) bool {
	switch s.cfg.Policy {
	case domain.PolicyOutOfRange:
		return !s.cfg.Filter.Contains(value)
	default:
		return true
	}
}

// Finish moves Sampling → Diagnosing, publishes the summary of the frozen
// history and ends in Done. A second call fails on the transition guard, so
// the diagnosis is produced at most once.
func (s *Session) Finish(ctx context.Context) (domain.Summary, error) {
	s.mu.Lock()
	if err := s.transition(domain.StateDiagnosing); err != nil {
		s.mu.Unlock()
		return domain.Summary{}, err
	}
	s.active = false
	history := append([]domain.Reading(nil), s.history...)
	s.mu.Unlock()

	summary := diagnosis.Summarize(s.cfg, s.id, history, s.clock.Now().UTC())
	if err := s.sink.Publish(ctx, summary); err != nil {
		s.logf(ctx, "session %s: publish diagnosis: %v", s.cfg.Name, err)
	}

	s.mu.Lock()
	s.summary = &summary
	err := s.transition(domain.StateDone)
	s.mu.Unlock()

	infra.SessionFinished(s.cfg.Name, summary.Classification.String())
	return summary, err
}

// Abort ends a session that never started sampling. No diagnosis is produced.
func (s *Session) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateScheduled {
		return fmt.Errorf("session %s: %w: abort while %s", s.cfg.Name, domain.ErrInvalidTransition, s.state)
	}
	if err := s.transition(domain.StateDone); err != nil {
		return err
	}
	infra.SessionFinished(s.cfg.Name, "")
	return nil
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() domain.ChannelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.ChannelState{
		Channel:      s.cfg.Name,
		SessionID:    s.id,
		State:        s.state,
		Active:       s.active,
		SamplesTaken: s.samples,
		SampleCap:    s.cfg.SampleCap,
		Policy:       s.cfg.Policy,
		History:      append([]domain.Reading(nil), s.history...),
	}
}

// Summary returns the diagnosis once the session has produced it.
func (s *Session) Summary() (domain.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.summary == nil {
		return domain.Summary{}, false
	}
	return *s.summary, true
}

// transition must be called with s.mu held.
func (s *Session) transition(next domain.State) error {
	state, err := s.state.Transition(next)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.cfg.Name, err)
	}
	s.state = state
	return nil
}

func (s *Session) logf(ctx context.Context, format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(ctx, format, v...)
	}
}

type discardChart struct{}

func (discardChart) Push(string, float64) {}

type discardSink struct{}

func (discardSink) Publish(context.Context, domain.Summary) error { return nil }
