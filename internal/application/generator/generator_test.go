package generator_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals-monitor/internal/application/generator"
)

func TestContinuousStaysWithinFluctuationBand(t *testing.T) {
	t.Parallel()

	gen := generator.NewContinuous(generator.ContinuousConfig{
		Baseline:       122,
		MaxFluctuation: 0.05,
		RandSource:     rand.NewSource(1),
	})

	low, high := 122*0.95, 122*1.05
	for i := 0; i < 5000; i++ {
		value := gen.Next()
		require.GreaterOrEqual(t, value, low, "iteration %d", i)
		require.LessOrEqual(t, value, high, "iteration %d", i)
	}

	bounds := gen.Bounds()
	assert.InDelta(t, low, bounds.Low, 1e-9)
	assert.InDelta(t, high, bounds.High, 1e-9)
}

func TestContinuousRoundsToTwoDecimals(t *testing.T) {
	t.Parallel()

	gen := generator.NewContinuous(generator.ContinuousConfig{
		Baseline:       100,
		MaxFluctuation: 0.5,
		RandSource:     rand.NewSource(7),
	})

	for i := 0; i < 200; i++ {
		value := gen.Next()
		assert.InDelta(t, value, math.Round(value*100)/100, 1e-9)
	}
}

func TestContinuousIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	a := generator.NewContinuous(generator.ContinuousConfig{Baseline: 150, MaxFluctuation: 0.05, RandSource: rand.NewSource(42)})
	b := generator.NewContinuous(generator.ContinuousConfig{Baseline: 150, MaxFluctuation: 0.05, RandSource: rand.NewSource(42)})

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestContinuousZeroFluctuationIsConstant(t *testing.T) {
	t.Parallel()

	gen := generator.NewContinuous(generator.ContinuousConfig{Baseline: 130, RandSource: rand.NewSource(3)})
	for i := 0; i < 10; i++ {
		assert.Equal(t, 130.0, gen.Next())
	}
}

func TestDiscreteProducesIntegersInSpread(t *testing.T) {
	t.Parallel()

	gen := generator.NewDiscrete(generator.DiscreteConfig{Baseline: 152, Spread: 4, RandSource: rand.NewSource(5)})

	seen := make(map[float64]bool)
	for i := 0; i < 2000; i++ {
		value := gen.Next()
		require.Equal(t, math.Trunc(value), value)
		require.GreaterOrEqual(t, value, 148.0)
		require.LessOrEqual(t, value, 156.0)
		seen[value] = true
	}
	assert.Len(t, seen, 9, "every score in the spread should eventually appear")
	assert.Equal(t, 148.0, gen.Bounds().Low)
	assert.Equal(t, 156.0, gen.Bounds().High)
}

func TestDiscreteNegativeSpreadIsNormalised(t *testing.T) {
	t.Parallel()

	gen := generator.NewDiscrete(generator.DiscreteConfig{Baseline: 10, Spread: -2, RandSource: rand.NewSource(9)})
	for i := 0; i < 100; i++ {
		value := gen.Next()
		assert.GreaterOrEqual(t, value, 8.0)
		assert.LessOrEqual(t, value, 12.0)
	}
}

func TestReplayRepeatsLastValue(t *testing.T) {
	t.Parallel()

	gen := generator.NewReplay(1, 2, 3)
	assert.Equal(t, []float64{1, 2, 3, 3, 3}, []float64{gen.Next(), gen.Next(), gen.Next(), gen.Next(), gen.Next()})

	empty := generator.NewReplay()
	assert.Equal(t, 0.0, empty.Next())
}

func TestRound2(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 114.01, generator.Round2(114.0149))
	assert.Equal(t, 114.02, generator.Round2(114.0151))
	assert.Equal(t, -1.25, generator.Round2(-1.2549))
}
