package domain

import "time"

// Reading is a single generated sample for a channel. Readings are immutable
// once created; the chart and the accumulator receive copies.
type Reading struct {
	Channel   string
	Seq       int
	Value     float64
	Unit      string
	Timestamp time.Time
}
