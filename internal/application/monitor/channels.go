package monitor

import (
	"math/rand"
	"time"

	"vitals-monitor/internal/application/generator"
	"vitals-monitor/internal/domain"
)

const (
	DefaultWarmUp     = 5 * time.Second
	DefaultTickPeriod = 3 * time.Second
	DefaultSampleCap  = 10

	GlucoseChannel  = "glucose"
	CrustrolChannel = "crustrol"
)

// Options tune the built-in channels. Zero values select the defaults.
type Options struct {
	WarmUp     time.Duration
	TickPeriod time.Duration
	SampleCap  int
	Policy     domain.Policy
	// Seed makes generators deterministic when non-zero.
	Seed int64
}

// DefaultChannels returns the two built-in channels: glucose, a continuous
// value around 122 mg/dL, and crustrol, an integer severity score around 152.
func DefaultChannels(opts Options) []domain.ChannelConfig {
	if opts.WarmUp <= 0 {
		opts.WarmUp = DefaultWarmUp
	}
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = DefaultTickPeriod
	}
	if opts.SampleCap <= 0 {
		opts.SampleCap = DefaultSampleCap
	}

	return []domain.ChannelConfig{
		{
			Name:       GlucoseChannel,
			Unit:       "mg/dL",
			WarmUp:     opts.WarmUp,
			TickPeriod: opts.TickPeriod,
			SampleCap:  opts.SampleCap,
			Filter:     domain.Band{Low: 110, High: 130},
			Reference:  domain.Band{Low: 120, High: 124},
			Policy:     opts.Policy,
			Generator: generator.NewContinuous(generator.ContinuousConfig{
				Baseline:       122,
				MaxFluctuation: 0.05,
				RandSource:     seededSource(opts.Seed, 1),
			}),
		},
		{
			Name:       CrustrolChannel,
			Unit:       "mg/dL",
			WarmUp:     opts.WarmUp,
			TickPeriod: opts.TickPeriod,
			SampleCap:  opts.SampleCap,
			Filter:     domain.Band{Low: 140, High: 160},
			Reference:  domain.Band{Low: 150, High: 154},
			Policy:     opts.Policy,
			Generator: generator.NewDiscrete(generator.DiscreteConfig{
				Baseline:   152,
				Spread:     4,
				RandSource: seededSource(opts.Seed, 2),
			}),
		},
	}
}

// seededSource returns nil for a zero seed so generators seed from the clock.
func seededSource(seed int64, offset int64) rand.Source {
	if seed == 0 {
		return nil
	}
	return rand.NewSource(seed + offset)
}
