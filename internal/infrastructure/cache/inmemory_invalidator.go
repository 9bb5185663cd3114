package cache

import (
	"context"
	"sync"

	"github.com/payroll/backend/internal/domain/insurance"
)

// InMemorySummaryInvalidator implements insurance.CacheInvalidator for
// single-instance deployments and tests. It records the refresh messages it
// receives so callers can observe invalidation activity.
type InMemorySummaryInvalidator struct {
	mu       sync.Mutex
	messages []insurance.CacheRefreshMessage
	closed   bool
}

// NewInMemorySummaryInvalidator creates a new in-memory invalidator
func NewInMemorySummaryInvalidator() *InMemorySummaryInvalidator {
	return &InMemorySummaryInvalidator{}
}

// InvalidatePeriod records the refresh message
func (i *InMemorySummaryInvalidator) InvalidatePeriod(_ context.Context, msg insurance.CacheRefreshMessage) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, msg)
	return nil
}

// Messages returns a copy of the recorded refresh messages
func (i *InMemorySummaryInvalidator) Messages() []insurance.CacheRefreshMessage {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]insurance.CacheRefreshMessage, len(i.messages))
	copy(out, i.messages)
	return out
}

// Close marks the invalidator as closed
func (i *InMemorySummaryInvalidator) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}

// Ensure InMemorySummaryInvalidator implements CacheInvalidator
var _ insurance.CacheInvalidator = (*InMemorySummaryInvalidator)(nil)
