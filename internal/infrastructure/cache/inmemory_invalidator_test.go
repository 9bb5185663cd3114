package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySummaryInvalidator(t *testing.T) {
	t.Run("records refresh messages", func(t *testing.T) {
		inv := NewInMemorySummaryInvalidator()
		periodID := uuid.New()
		employeeID := uuid.New()

		err := inv.InvalidatePeriod(context.Background(), insurance.CacheRefreshMessage{
			PeriodID:    periodID,
			EmployeeIDs: []uuid.UUID{employeeID},
		})
		require.NoError(t, err)

		msgs := inv.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, periodID, msgs[0].PeriodID)
		assert.Equal(t, []uuid.UUID{employeeID}, msgs[0].EmployeeIDs)
	})

	t.Run("safe under concurrent use", func(t *testing.T) {
		inv := NewInMemorySummaryInvalidator()
		periodID := uuid.New()

		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = inv.InvalidatePeriod(context.Background(), insurance.CacheRefreshMessage{PeriodID: periodID})
			}()
		}
		wg.Wait()

		assert.Len(t, inv.Messages(), 20)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		inv := NewInMemorySummaryInvalidator()
		assert.NoError(t, inv.Close())
		assert.NoError(t, inv.Close())
	})
}
