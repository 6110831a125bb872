// Package panel holds the diagnosis display regions. Each region stays
// hidden until the first diagnosis for its channel is shown.
package panel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vitals-monitor/internal/domain"
)

// Region is a snapshot of one display region.
type Region struct {
	Name      string    `json:"name"`
	Visible   bool      `json:"visible"`
	Text      string    `json:"text,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	ShownAt   time.Time `json:"shownAt,omitempty"`
}

// RegionName returns the region that displays a channel's diagnosis.
func RegionName(channel string) string {
	return channel + "Diagnosis"
}

// Panel is the set of diagnosis regions.
type Panel struct {
	mu      sync.RWMutex
	regions map[string]*Region
}

// New creates a hidden region for every channel.
func New(channels ...string) *Panel {
	p := &Panel{regions: make(map[string]*Region, len(channels))}
	for _, channel := range channels {
		name := RegionName(channel)
		p.regions[name] = &Region{Name: name}
	}
	return p
}

// Show writes text into a region and makes it visible. A region is shown
// once; later calls fail with domain.ErrAlreadyShown.
func (p *Panel) Show(region, sessionID, text string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.regions[region]
	if !ok {
		return fmt.Errorf("%w: region %q", domain.ErrNotFound, region)
	}
	if r.Visible {
		return fmt.Errorf("%w: region %q", domain.ErrAlreadyShown, region)
	}

	r.Visible = true
	r.Text = text
	r.SessionID = sessionID
	r.ShownAt = at
	return nil
}

// Publish shows the summary text in the region of its channel.
func (p *Panel) Publish(_ context.Context, summary domain.Summary) error {
	return p.Show(RegionName(summary.Channel), summary.SessionID, summary.Text, summary.CompletedAt)
}

// Region returns a copy of a region.
func (p *Panel) Region(name string) (Region, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	r, ok := p.regions[name]
	if !ok {
		return Region{}, false
	}
	return *r, true
}

// Regions returns every region ordered by name.
func (p *Panel) Regions() []Region {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Region, 0, len(p.regions))
	for _, r := range p.regions {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var _ domain.DiagnosisSink = (*Panel)(nil)
