package domain

import (
	"fmt"
	"strings"
	"time"
)

// Band is a closed numeric interval [Low, High].
type Band struct {
	Low  float64
	High float64
}

func (b Band) Contains(v float64) bool { return v >= b.Low && v <= b.High }

func (b Band) Above(v float64) bool { return v > b.High }

func (b Band) Below(v float64) bool { return v < b.Low }

// Policy pairs an accumulation rule with the statistic computed at diagnosis.
type Policy int

const (
	// PolicyAll appends every reading and diagnoses on the mean.
	PolicyAll Policy = iota
	// PolicyOutOfRange appends only readings outside the filter band and
	// diagnoses on min/max.
	PolicyOutOfRange
)

func (p Policy) String() string {
	switch p {
	case PolicyAll:
		return "all"
	case PolicyOutOfRange:
		return "out-of-range"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts the configuration spelling of a policy.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all", "unconditional":
		return PolicyAll, nil
	case "out-of-range", "filtered", "threshold":
		return PolicyOutOfRange, nil
	default:
		return PolicyAll, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, value)
	}
}

// ChannelConfig is the parametric description of one monitored channel.
type ChannelConfig struct {
	Name       string
	Unit       string
	WarmUp     time.Duration
	TickPeriod time.Duration
	SampleCap  int
	// Filter is the band used by PolicyOutOfRange to decide what is kept.
	Filter Band
	// Reference is the band the diagnosis classifies against.
	Reference Band
	Policy    Policy
	Generator ReadingGenerator
}

// Validate reports configuration that would make a session meaningless.
func (c ChannelConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: channel name is required", ErrInvalidConfig)
	case c.Generator == nil:
		return fmt.Errorf("%w: channel %s has no generator", ErrInvalidConfig, c.Name)
	case c.SampleCap <= 0:
		return fmt.Errorf("%w: channel %s sample cap must be positive", ErrInvalidConfig, c.Name)
	case c.TickPeriod <= 0:
		return fmt.Errorf("%w: channel %s tick period must be positive", ErrInvalidConfig, c.Name)
	case c.WarmUp < 0:
		return fmt.Errorf("%w: channel %s warm-up must not be negative", ErrInvalidConfig, c.Name)
	case c.Reference.Low > c.Reference.High:
		return fmt.Errorf("%w: channel %s reference band is inverted", ErrInvalidConfig, c.Name)
	case c.Filter.Low > c.Filter.High:
		return fmt.Errorf("%w: channel %s filter band is inverted", ErrInvalidConfig, c.Name)
	}
	return nil
}
