package memory

import (
	"context"
	"sort"
	"sync"

	"vitals-monitor/internal/domain"
)

// DefaultLimit is applied by Recent when the caller passes no positive limit.
const DefaultLimit = 20

// Repository archives diagnosis summaries in memory.
type Repository struct {
	mu        sync.RWMutex
	summaries []domain.Summary
}

// New creates an empty in-memory archive.
func New() *Repository {
	return &Repository{}
}

// Seed replaces the internal storage with the provided summaries.
func (r *Repository) Seed(summaries []domain.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]domain.Summary, len(summaries))
	copy(copied, summaries)
	r.summaries = copied
}

// Add stores a summary in the archive.
func (r *Repository) Add(_ context.Context, summary domain.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summaries = append(r.summaries, summary)
	return nil
}

// Recent returns up to limit summaries of a channel, most recently completed
// first.
func (r *Repository) Recent(_ context.Context, channel string, limit int) ([]domain.Summary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	r.mu.RLock()
	filtered := make([]domain.Summary, 0, len(r.summaries))
	for i := range r.summaries {
		if r.summaries[i].Channel == channel {
			filtered = append(filtered, r.summaries[i])
		}
	}
	r.mu.RUnlock()

	if len(filtered) == 0 {
		return nil, domain.ErrNotFound
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CompletedAt.After(filtered[j].CompletedAt)
	})

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

var _ domain.SummaryRepository = (*Repository)(nil)
