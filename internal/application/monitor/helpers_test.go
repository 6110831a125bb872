package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"vitals-monitor/internal/application/generator"
	"vitals-monitor/internal/domain"
)

type recordingChart struct {
	mu     sync.Mutex
	values map[string][]float64
}

func (c *recordingChart) Push(chart string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string][]float64)
	}
	c.values[chart] = append(c.values[chart], value)
}

func (c *recordingChart) pushed(chart string) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]float64(nil), c.values[chart]...)
}

type recordingSink struct {
	mu        sync.Mutex
	summaries []domain.Summary
	err       error
}

func (s *recordingSink) Publish(_ context.Context, summary domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return s.err
}

func (s *recordingSink) published() []domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Summary(nil), s.summaries...)
}

func channelConfig(name string, policy domain.Policy, values ...float64) domain.ChannelConfig {
	return domain.ChannelConfig{
		Name:       name,
		Unit:       "mg/dL",
		WarmUp:     5 * time.Second,
		TickPeriod: 3 * time.Second,
		SampleCap:  10,
		Filter:     domain.Band{Low: 110, High: 130},
		Reference:  domain.Band{Low: 120, High: 124},
		Policy:     policy,
		Generator:  generator.NewReplay(values...),
	}
}

// advanceUntil moves the mock clock forward in small steps until done is
// closed, giving the session goroutine time to react between steps.
func advanceUntil(t *testing.T, mock *clock.Mock, done <-chan struct{}) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-done:
			return
		default:
		}
		mock.Add(500 * time.Millisecond)
	}
	t.Fatal("session did not finish in time")
}

// advanceWhile moves the mock clock until cond becomes false.
func advanceWhile(t *testing.T, mock *clock.Mock, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition did not change in time")
		}
		mock.Add(500 * time.Millisecond)
	}
}
