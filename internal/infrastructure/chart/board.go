// Package chart keeps the rolling display windows of the monitored channels
// and fans every update out to subscribers.
package chart

import (
	"sync"

	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
)

// DefaultWindow is the number of points shown on a chart.
const DefaultWindow = 10

// subscriberBuffer is the number of frames a slow subscriber may lag behind
// before frames are dropped for it.
const subscriberBuffer = 32

// Style is the presentation metadata of a chart.
type Style struct {
	Label        string  `json:"label"`
	BorderColor  string  `json:"borderColor"`
	FillColor    string  `json:"backgroundColor"`
	SuggestedMin float64 `json:"suggestedMin"`
	SuggestedMax float64 `json:"suggestedMax"`
}

// DefaultStyles returns the styles of the built-in glucose and crustrol charts.
func DefaultStyles() map[string]Style {
	return map[string]Style{
		"glucose": {
			Label:        "Glucose Levels (mg/dL)",
			BorderColor:  "rgb(75, 192, 192)",
			FillColor:    "rgba(75, 192, 192, 0.2)",
			SuggestedMin: 110,
			SuggestedMax: 124,
		},
		"crustrol": {
			Label:        "Crustrol Severity (mg/dL)",
			BorderColor:  "rgb(255, 99, 132)",
			FillColor:    "rgba(255, 99, 132, 0.2)",
			SuggestedMin: 140,
			SuggestedMax: 154,
		},
	}
}

type window struct {
	seq    uint64
	values []*float64
}

// Board stores one rolling window per chart. Windows start with every slot
// empty and shift the oldest value out on each push.
type Board struct {
	size   int
	styles map[string]Style

	mu          sync.RWMutex
	windows     map[string]*window
	subscribers map[int]chan domain.ChartFrame
	nextID      int
}

func NewBoard(size int, styles map[string]Style) *Board {
	if size <= 0 {
		size = DefaultWindow
	}
	if styles == nil {
		styles = map[string]Style{}
	}
	return &Board{
		size:        size,
		styles:      styles,
		windows:     make(map[string]*window),
		subscribers: make(map[int]chan domain.ChartFrame),
	}
}

// Push appends a value to the chart window and publishes the new frame.
// Subscribers whose buffer is full miss the frame.
func (b *Board) Push(chart string, value float64) {
	b.mu.Lock()
	w, ok := b.windows[chart]
	if !ok {
		w = &window{values: make([]*float64, b.size)}
		b.windows[chart] = w
	}

	v := value
	copy(w.values, w.values[1:])
	w.values[len(w.values)-1] = &v
	w.seq++

	frame := b.frameLocked(chart, w)
	for _, ch := range b.subscribers {
		select {
		case ch <- frame:
		default:
		}
	}
	b.mu.Unlock()
}

// Frame returns the current window of a chart. Charts that never received a
// value report false.
func (b *Board) Frame(chart string) (domain.ChartFrame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	w, ok := b.windows[chart]
	if !ok {
		return domain.ChartFrame{}, false
	}
	return b.frameLocked(chart, w), true
}

// Style returns the presentation metadata of a chart.
func (b *Board) Style(chart string) (Style, bool) {
	style, ok := b.styles[chart]
	return style, ok
}

// Subscribe registers a frame listener. The returned function unregisters it
// and closes the channel; it is safe to call more than once.
func (b *Board) Subscribe() (<-chan domain.ChartFrame, func()) {
	ch := make(chan domain.ChartFrame, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()
	infra.ChartSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			close(ch)
			b.mu.Unlock()
			infra.ChartSubscribers.Dec()
		})
	}
}

// frameLocked copies the window so callers never share its pointers.
func (b *Board) frameLocked(chart string, w *window) domain.ChartFrame {
	values := make([]*float64, len(w.values))
	labels := make([]int, len(w.values))
	for i, v := range w.values {
		labels[i] = i + 1
		if v != nil {
			copied := *v
			values[i] = &copied
		}
	}
	return domain.ChartFrame{
		Chart:  chart,
		Seq:    w.seq,
		Labels: labels,
		Values: values,
	}
}

var (
	_ domain.ChartSink   = (*Board)(nil)
	_ domain.ChartSource = (*Board)(nil)
)
