package domain

import "time"

// Classification is the single label a diagnosis assigns to a session.
type Classification int

const (
	ClassificationNoData Classification = iota
	ClassificationLow
	ClassificationWithinRange
	ClassificationHigh
)

func (c Classification) String() string {
	switch c {
	case ClassificationLow:
		return "Low"
	case ClassificationWithinRange:
		return "Within-range"
	case ClassificationHigh:
		return "High"
	default:
		return "No-data"
	}
}

// Summary is the frozen result of diagnosing a session history. Mean is set
// for PolicyAll, Min and Max for PolicyOutOfRange.
type Summary struct {
	Channel        string
	SessionID      string
	Policy         Policy
	Count          int
	Mean           float64
	Min            float64
	Max            float64
	Reference      Band
	Unit           string
	Classification Classification
	Text           string
	CompletedAt    time.Time
}

// HasData reports whether the summary was computed over at least one reading.
func (s Summary) HasData() bool { return s.Count > 0 }
