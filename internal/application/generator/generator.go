package generator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"vitals-monitor/internal/domain"
)

// ContinuousConfig describes a value that wanders uniformly around a baseline.
type ContinuousConfig struct {
	Baseline float64
	// MaxFluctuation is the relative half-width of the band, e.g. 0.05 for ±5%.
	MaxFluctuation float64
	RandSource     rand.Source
}

// Continuous produces values in [Baseline×(1−MaxFluctuation), Baseline×(1+MaxFluctuation)]
// rounded to two decimals. It is not safe for concurrent use.
type Continuous struct {
	low  float64
	high float64
	rnd  *rand.Rand
}

func NewContinuous(cfg ContinuousConfig) *Continuous {
	fluctuation := math.Abs(cfg.MaxFluctuation)
	low := cfg.Baseline * (1 - fluctuation)
	high := cfg.Baseline * (1 + fluctuation)
	if low > high {
		low, high = high, low
	}

	return &Continuous{
		low:  low,
		high: high,
		rnd:  rand.New(sourceOrDefault(cfg.RandSource)),
	}
}

func (g *Continuous) Next() float64 {
	value := g.low + g.rnd.Float64()*(g.high-g.low)
	return clamp(Round2(value), g.low, g.high)
}

// Bounds returns the closed interval every value falls into.
func (g *Continuous) Bounds() domain.Band {
	return domain.Band{Low: g.low, High: g.high}
}

// DiscreteConfig describes an integer score drawn from Baseline±Spread.
type DiscreteConfig struct {
	Baseline   int
	Spread     int
	RandSource rand.Source
}

// Discrete produces integer-valued scores. It is not safe for concurrent use.
type Discrete struct {
	baseline int
	spread   int
	rnd      *rand.Rand
}

func NewDiscrete(cfg DiscreteConfig) *Discrete {
	spread := cfg.Spread
	if spread < 0 {
		spread = -spread
	}
	return &Discrete{
		baseline: cfg.Baseline,
		spread:   spread,
		rnd:      rand.New(sourceOrDefault(cfg.RandSource)),
	}
}

func (g *Discrete) Next() float64 {
	return float64(g.baseline + g.rnd.Intn(2*g.spread+1) - g.spread)
}

func (g *Discrete) Bounds() domain.Band {
	return domain.Band{Low: float64(g.baseline - g.spread), High: float64(g.baseline + g.spread)}
}

// Replay returns the given values in order and then repeats the last one.
// Used to script sessions with known readings.
type Replay struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func NewReplay(values ...float64) *Replay {
	return &Replay{values: append([]float64(nil), values...)}
}

func (r *Replay) Next() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.values) == 0 {
		return 0
	}
	if r.next >= len(r.values) {
		return r.values[len(r.values)-1]
	}
	value := r.values[r.next]
	r.next++
	return value
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, low, high float64) float64 {
	return math.Min(math.Max(v, low), high)
}

func sourceOrDefault(source rand.Source) rand.Source {
	if source == nil {
		return rand.NewSource(time.Now().UnixNano())
	}
	return source
}

var (
	_ domain.ReadingGenerator = (*Continuous)(nil)
	_ domain.ReadingGenerator = (*Discrete)(nil)
	_ domain.ReadingGenerator = (*Replay)(nil)
)
