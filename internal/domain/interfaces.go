package domain

import "context"

// ReadingGenerator synthesizes the next value for a channel.
type ReadingGenerator interface {
	Next() float64
}

// ChartSink receives every generated value for display.
type ChartSink interface {
	Push(chart string, value float64)
}

// ChartSource exposes the current frame of a chart to transports.
type ChartSource interface {
	Frame(chart string) (ChartFrame, bool)
}

// ChartFrame is the rolling window of a chart after a push. Empty slots are nil.
type ChartFrame struct {
	Chart  string
	Seq    uint64
	Labels []int
	Values []*float64
}

// DiagnosisSink accepts a completed summary. Sessions publish at most once.
type DiagnosisSink interface {
	Publish(ctx context.Context, summary Summary) error
}

// SummaryWriter stores completed summaries.
type SummaryWriter interface {
	Add(ctx context.Context, summary Summary) error
}

// SummaryReader exposes archived summaries, newest first.
type SummaryReader interface {
	Recent(ctx context.Context, channel string, limit int) ([]Summary, error)
}

// SummaryRepository aggregates the write and read capabilities of the archive.
type SummaryRepository interface {
	SummaryWriter
	SummaryReader
}

// MonitorService describes the behaviour exposed to transport layers.
type MonitorService interface {
	Channels() []ChannelState
	State(channel string) (ChannelState, error)
	Chart(channel string) (ChartFrame, error)
	Diagnosis(channel string) (Summary, error)
	History(ctx context.Context, channel string, limit int) ([]Summary, error)
}

// WorkerPool consumes completed summaries and stores them via the archive.
type WorkerPool interface {
	Run(ctx context.Context, summaries <-chan Summary)
}
