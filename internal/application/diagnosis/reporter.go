// Package diagnosis turns a frozen session history into a classified summary
// and its human-readable rendering.
package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"vitals-monitor/internal/domain"
)

// NoDataText is the whole rendering of a session that kept no readings.
const NoDataText = "No readings available for diagnosis."

// Summarize computes the statistic selected by the channel policy and
// classifies it against the channel reference band. history is not modified.
func Summarize(cfg domain.ChannelConfig, sessionID string, history []domain.Reading, at time.Time) domain.Summary {
	summary := domain.Summary{
		Channel:     cfg.Name,
		SessionID:   sessionID,
		Policy:      cfg.Policy,
		Count:       len(history),
		Reference:   cfg.Reference,
		Unit:        cfg.Unit,
		CompletedAt: at,
	}

	if len(history) == 0 {
		summary.Classification = domain.ClassificationNoData
		summary.Text = NoDataText
		return summary
	}

	switch cfg.Policy {
	case domain.PolicyOutOfRange:
		summary.Min, summary.Max = minMax(history)
		summary.Classification = classifyExtremes(summary.Min, summary.Max, cfg.Reference)
	default:
		summary.Mean = round2(mean(history))
		summary.Classification = classifyMean(summary.Mean, cfg.Reference)
	}

	summary.Text = Render(summary)
	return summary
}

// Render formats a summary as a range statement, the statistic lines and a
// classification sentence, one per line.
func Render(summary domain.Summary) string {
	if !summary.HasData() {
		return NoDataText
	}

	channel := summary.Channel
	unit := summary.Unit

	lines := []string{
		fmt.Sprintf("Reference range for %s: %s-%s %s",
			channel, formatValue(summary.Reference.Low), formatValue(summary.Reference.High), unit),
	}

	scope := "all"
	switch summary.Policy {
	case domain.PolicyOutOfRange:
		scope = "out-of-range"
		lines = append(lines,
			fmt.Sprintf("Lowest %s reading: %s %s", channel, formatValue(summary.Min), unit),
			fmt.Sprintf("Highest %s reading: %s %s", channel, formatValue(summary.Max), unit),
		)
	default:
		lines = append(lines, fmt.Sprintf("Average %s reading: %s %s", channel, formatValue(summary.Mean), unit))
	}

	verdict := fmt.Sprintf("Diagnosis for %s %s readings: ", scope, channel)
	switch summary.Classification {
	case domain.ClassificationHigh:
		verdict += fmt.Sprintf("High %s levels detected.", channel)
	case domain.ClassificationLow:
		verdict += fmt.Sprintf("Low %s levels detected.", channel)
	case domain.ClassificationWithinRange:
		verdict += "All readings are within the specified range."
	default:
		verdict += "readings could not be classified."
	}
	lines = append(lines, verdict)

	return strings.Join(lines, "\n")
}

func classifyMean(value float64, reference domain.Band) domain.Classification {
	switch {
	case !finite(value):
		return domain.ClassificationNoData
	case reference.Above(value):
		return domain.ClassificationHigh
	case reference.Below(value):
		return domain.ClassificationLow
	default:
		return domain.ClassificationWithinRange
	}
}

// classifyExtremes picks the side with the larger excursion when the history
// leaves the band on both sides. Ties go to High.
func classifyExtremes(lowest, highest float64, reference domain.Band) domain.Classification {
	if !finite(lowest) || !finite(highest) {
		return domain.ClassificationNoData
	}

	highExcursion := highest - reference.High
	lowExcursion := reference.Low - lowest

	switch {
	case highExcursion > 0 && highExcursion >= lowExcursion:
		return domain.ClassificationHigh
	case lowExcursion > 0:
		return domain.ClassificationLow
	default:
		return domain.ClassificationWithinRange
	}
}

func mean(history []domain.Reading) float64 {
	var sum float64
	for _, reading := range history {
		sum += reading.Value
	}
	return sum / float64(len(history))
}

func minMax(history []domain.Reading) (float64, float64) {
	lowest, highest := history[0].Value, history[0].Value
	for _, reading := range history[1:] {
		lowest = math.Min(lowest, reading.Value)
		highest = math.Max(highest, reading.Value)
	}
	return lowest, highest
}

func round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return math.Round(v*100) / 100
}

func formatValue(v float64) string {
	if !finite(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Fanout publishes a summary to every sink and joins their errors. A failing
// sink does not prevent the others from receiving the summary.
type Fanout []domain.DiagnosisSink

func (f Fanout) Publish(ctx context.Context, summary domain.Summary) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ domain.DiagnosisSink = Fanout(nil)
