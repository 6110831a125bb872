package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitals-monitor/internal/domain"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.State
		to      domain.State
		allowed bool
	}{
		{"idle to scheduled", domain.StateIdle, domain.StateScheduled, true},
		{"scheduled to sampling", domain.StateScheduled, domain.StateSampling, true},
		{"scheduled to done", domain.StateScheduled, domain.StateDone, true},
		{"sampling loops", domain.StateSampling, domain.StateSampling, true},
		{"sampling to diagnosing", domain.StateSampling, domain.StateDiagnosing, true},
		{"diagnosing to done", domain.StateDiagnosing, domain.StateDone, true},
		{"idle to sampling", domain.StateIdle, domain.StateSampling, false},
		{"sampling to done", domain.StateSampling, domain.StateDone, false},
		{"diagnosing to sampling", domain.StateDiagnosing, domain.StateSampling, false},
		{"done to scheduled", domain.StateDone, domain.StateScheduled, false},
		{"done to diagnosing", domain.StateDone, domain.StateDiagnosing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))

			next, err := tt.from.Transition(tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, next)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, tt.from, next)
		})
	}
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "idle", domain.StateIdle.String())
	assert.Equal(t, "sampling", domain.StateSampling.String())
	assert.Equal(t, "done", domain.StateDone.String())
	assert.Equal(t, "state(42)", domain.State(42).String())

	assert.True(t, domain.StateDone.Terminal())
	assert.False(t, domain.StateDiagnosing.Terminal())
}

func TestClassificationNames(t *testing.T) {
	assert.Equal(t, "High", domain.ClassificationHigh.String())
	assert.Equal(t, "Low", domain.ClassificationLow.String())
	assert.Equal(t, "Within-range", domain.ClassificationWithinRange.String())
	assert.Equal(t, "No-data", domain.ClassificationNoData.String())

	assert.False(t, domain.Summary{}.HasData())
	assert.True(t, domain.Summary{Count: 1}.HasData())
}
