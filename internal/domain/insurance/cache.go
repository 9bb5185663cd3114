package insurance

import (
	"context"

	"github.com/google/uuid"
)

// CacheRefreshMessage tells interested consumers that the computed
// contribution results for a period changed and any cached summaries
// derived from them are stale.
type CacheRefreshMessage struct {
	PeriodID    uuid.UUID   `json:"period_id"`
	EmployeeIDs []uuid.UUID `json:"employee_ids,omitempty"`
	Timestamp   int64       `json:"timestamp"`
}

// CacheInvalidator drops cached contribution summaries after a write and
// notifies other instances. Implementations must be safe for concurrent use.
type CacheInvalidator interface {
	// InvalidatePeriod removes cached summaries for the period. An empty
	// EmployeeIDs slice means the whole period.
	InvalidatePeriod(ctx context.Context, msg CacheRefreshMessage) error

	// Close releases any resources held by the invalidator.
	Close() error
}
