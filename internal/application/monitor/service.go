package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"vitals-monitor/internal/domain"
)

// Deps are the shared collaborators of every channel session.
type Deps struct {
	Clock   clock.Clock
	Chart   domain.ChartSink
	Charts  domain.ChartSource
	Sink    domain.DiagnosisSink
	Archive domain.SummaryReader
	Logger  Logger
}

// Monitor owns one session per channel, keyed by channel name, and exposes
// their state to transports.
type Monitor struct {
	sessions map[string]*Session
	order    []string
	charts   domain.ChartSource
	archive  domain.SummaryReader
	logger   Logger
}

func New(channels []domain.ChannelConfig, deps Deps) (*Monitor, error) {
	m := &Monitor{
		sessions: make(map[string]*Session, len(channels)),
		charts:   deps.Charts,
		archive:  deps.Archive,
		logger:   deps.Logger,
	}

	for _, cfg := range channels {
		if _, exists := m.sessions[cfg.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate channel %q", domain.ErrInvalidConfig, cfg.Name)
		}

		session, err := NewSession(cfg, SessionDeps{
			Clock:  deps.Clock,
			Chart:  deps.Chart,
			Sink:   deps.Sink,
			Logger: deps.Logger,
		})
		if err != nil {
			return nil, err
		}

		m.sessions[cfg.Name] = session
		m.order = append(m.order, cfg.Name)
	}

	return m, nil
}

// Run starts every session on its own goroutine and blocks until all of them
// are done. Context cancellation is not reported as an error.
func (m *Monitor) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	wg.Add(len(m.order))
	for _, name := range m.order {
		session := m.sessions[name]
		go func() {
			defer wg.Done()
			if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if m.logger != nil {
		m.logger.Printf(ctx, "monitor: all %d sessions finished", len(m.order))
	}
	return errors.Join(errs...)
}

// Session returns the session registered for a channel.
func (m *Monitor) Session(channel string) (*Session, error) {
	session, ok := m.sessions[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownChannel, channel)
	}
	return session, nil
}

func (m *Monitor) Channels() []domain.ChannelState {
	states := make([]domain.ChannelState, 0, len(m.order))
	for _, name := range m.order {
		states = append(states, m.sessions[name].Snapshot())
	}
	return states
}

func (m *Monitor) State(channel string) (domain.ChannelState, error) {
	session, err := m.Session(channel)
	if err != nil {
		return domain.ChannelState{}, err
	}
	return session.Snapshot(), nil
}

func (m *Monitor) Chart(channel string) (domain.ChartFrame, error) {
	if _, err := m.Session(channel); err != nil {
		return domain.ChartFrame{}, err
	}
	if m.charts != nil {
		if frame, ok := m.charts.Frame(channel); ok {
			return frame, nil
		}
	}
	return domain.ChartFrame{Chart: channel}, nil
}

func (m *Monitor) Diagnosis(channel string) (domain.Summary, error) {
	session, err := m.Session(channel)
	if err != nil {
		return domain.Summary{}, err
	}
	summary, ok := session.Summary()
	if !ok {
		return domain.Summary{}, fmt.Errorf("%w: %s is %s", domain.ErrDiagnosisPending, channel, session.Snapshot().State)
	}
	return summary, nil
}

func (m *Monitor) History(ctx context.Context, channel string, limit int) ([]domain.Summary, error) {
	if _, err := m.Session(channel); err != nil {
		return nil, err
	}
	if m.archive == nil {
		return nil, domain.ErrNotFound
	}
	return m.archive.Recent(ctx, channel, limit)
}

var _ domain.MonitorService = (*Monitor)(nil)
