package insurance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/infrastructure/cache"
	"github.com/payroll/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testBatchConfig() config.BatchConfig {
	return config.BatchConfig{
		GroupSize:        5,
		ResolveChunkSize: 50,
		WriteChunkSize:   200,
		WriteConcurrency: 3,
		WriteRetries:     2,
		RetryBaseDelay:   time.Millisecond,
		CallTimeout:      5 * time.Second,
	}
}

func newBatchService(f *serviceFixture, invalidator insurance.CacheInvalidator, cfg config.BatchConfig) *BatchService {
	return NewBatchService(f.snapshots, f.entryRepo, invalidator, cfg, zap.NewNop())
}

// expectBatch wires assignments, bases and rules for the given employees,
// leaving any extra IDs in the run unassigned.
func (f *serviceFixture) expectBatch(assigned []uuid.UUID, all []uuid.UUID) {
	assignments := make([]insurance.CategoryAssignment, len(assigned))
	var allBases []insurance.ContributionBase
	for i, id := range assigned {
		assignments[i] = insurance.CategoryAssignment{EmployeeID: id, PeriodID: f.period.ID, CategoryID: f.staffID}
		allBases = append(allBases, f.bases(id, "5000", "")...)
	}
	f.categoryRepo.On("FindAssignments", mock.Anything, f.period.ID, all).Return(assignments, nil)
	f.baseRepo.On("FindByEmployees", mock.Anything, f.period.ID, all).Return(allBases, nil)
	f.ruleRepo.On("FindActive", mock.Anything, mock.Anything, mock.Anything, f.period.ReferenceDate()).
		Return([]insurance.InsuranceRule{f.pensionRule, f.housingRule}, nil)
}

func TestBatchService_RunBatch(t *testing.T) {
	t.Run("setup failure aborts the run", func(t *testing.T) {
		f := newServiceFixture(t)
		f.periodRepo.On("FindByID", mock.Anything, f.period.ID).Return(nil, errors.New("connection refused"))
		svc := newBatchService(f, nil, testBatchConfig())

		summary, err := svc.RunBatch(context.Background(), BatchInput{PeriodID: f.period.ID})

		assert.Error(t, err)
		assert.Nil(t, summary)
	})

	t.Run("isolates one failing employee out of five", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		svc := newBatchService(f, nil, testBatchConfig())

		assigned := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
		unassigned := uuid.New()
		all := append(append([]uuid.UUID{}, assigned...), unassigned)
		f.expectBatch(assigned, all)

		summary, err := svc.RunBatch(context.Background(), BatchInput{
			PeriodID:    f.period.ID,
			EmployeeIDs: all,
		})

		require.NoError(t, err)
		assert.Equal(t, 5, summary.Total)
		assert.Equal(t, 4, summary.Succeeded)
		assert.Equal(t, 1, summary.Failed)

		var failed *insurance.BatchItemResult
		for i := range summary.Results {
			if !summary.Results[i].Success {
				failed = &summary.Results[i]
			}
		}
		require.NotNil(t, failed)
		assert.Equal(t, unassigned, failed.EmployeeID)
		assert.Equal(t, insurance.CodeCategoryAssignmentMissing, failed.Details[0].ErrorCode)
	})

	t.Run("defaults to every assigned employee when list is empty", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		svc := newBatchService(f, nil, testBatchConfig())

		assigned := []uuid.UUID{uuid.New(), uuid.New()}
		f.categoryRepo.On("ListAssignedEmployeeIDs", mock.Anything, f.period.ID).Return(assigned, nil)
		f.expectBatch(assigned, assigned)

		summary, err := svc.RunBatch(context.Background(), BatchInput{PeriodID: f.period.ID})

		require.NoError(t, err)
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, 2, summary.Succeeded)
		f.categoryRepo.AssertExpectations(t)
	})

	t.Run("persists line items and invalidates cache", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		invalidator := cache.NewInMemorySummaryInvalidator()
		svc := newBatchService(f, invalidator, testBatchConfig())

		assigned := []uuid.UUID{uuid.New(), uuid.New()}
		f.expectBatch(assigned, assigned)

		entryIDs := map[uuid.UUID]uuid.UUID{
			assigned[0]: uuid.New(),
			assigned[1]: uuid.New(),
		}
		f.entryRepo.On("FindEntryIDs", mock.Anything, f.period.ID, mock.Anything).Return(entryIDs, nil)
		f.entryRepo.On("BulkUpsertLineItems", mock.Anything, mock.Anything).Return(nil)

		summary, err := svc.RunBatch(context.Background(), BatchInput{
			PeriodID:    f.period.ID,
			EmployeeIDs: assigned,
			Persist:     true,
		})

		require.NoError(t, err)
		assert.Equal(t, 2, summary.Succeeded)
		// two pension items per employee
		assert.Equal(t, 4, summary.PersistedItems)
		assert.Zero(t, summary.FailedWriteChunks)
		for _, result := range summary.Results {
			assert.Equal(t, 2, result.PersistedItems)
		}

		msgs := invalidator.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, f.period.ID, msgs[0].PeriodID)
		assert.Len(t, msgs[0].EmployeeIDs, 2)
	})

	t.Run("missing payroll entry marks the employee failed", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		svc := newBatchService(f, nil, testBatchConfig())

		assigned := []uuid.UUID{uuid.New(), uuid.New()}
		f.expectBatch(assigned, assigned)

		entryIDs := map[uuid.UUID]uuid.UUID{assigned[0]: uuid.New()}
		f.entryRepo.On("FindEntryIDs", mock.Anything, f.period.ID, mock.Anything).Return(entryIDs, nil)
		f.entryRepo.On("BulkUpsertLineItems", mock.Anything, mock.Anything).Return(nil)

		summary, err := svc.RunBatch(context.Background(), BatchInput{
			PeriodID:    f.period.ID,
			EmployeeIDs: assigned,
			Persist:     true,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Succeeded)
		assert.Equal(t, 1, summary.Failed)
		for _, result := range summary.Results {
			if result.EmployeeID == assigned[1] {
				assert.False(t, result.Success)
				last := result.Details[len(result.Details)-1]
				assert.Equal(t, insurance.CodePayrollRecordMissing, last.ErrorCode)
			}
		}
	})

	t.Run("write chunk retries then counts the failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		svc := newBatchService(f, nil, testBatchConfig())

		assigned := []uuid.UUID{uuid.New()}
		f.expectBatch(assigned, assigned)

		f.entryRepo.On("FindEntryIDs", mock.Anything, f.period.ID, mock.Anything).
			Return(map[uuid.UUID]uuid.UUID{assigned[0]: uuid.New()}, nil)
		// 1 initial attempt + 2 retries
		f.entryRepo.On("BulkUpsertLineItems", mock.Anything, mock.Anything).
			Return(errors.New("deadlock detected")).Times(3)

		summary, err := svc.RunBatch(context.Background(), BatchInput{
			PeriodID:    f.period.ID,
			EmployeeIDs: assigned,
			Persist:     true,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, summary.FailedWriteChunks)
		assert.Equal(t, 0, summary.Succeeded)
		assert.Equal(t, 1, summary.Failed)
		last := summary.Results[0].Details[len(summary.Results[0].Details)-1]
		assert.Equal(t, insurance.CodeWriteChunkFailed, last.ErrorCode)
		f.entryRepo.AssertExpectations(t)
	})

	t.Run("splits large buffers into multiple chunks", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		cfg := testBatchConfig()
		cfg.WriteChunkSize = 2 // each employee yields 2 pension items
		svc := newBatchService(f, nil, cfg)

		assigned := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		f.expectBatch(assigned, assigned)

		entryIDs := make(map[uuid.UUID]uuid.UUID, len(assigned))
		for _, id := range assigned {
			entryIDs[id] = uuid.New()
		}
		f.entryRepo.On("FindEntryIDs", mock.Anything, f.period.ID, mock.Anything).Return(entryIDs, nil)
		f.entryRepo.On("BulkUpsertLineItems", mock.Anything, mock.MatchedBy(func(items []insurance.LineItem) bool {
			return len(items) == 2
		})).Return(nil).Times(3)

		summary, err := svc.RunBatch(context.Background(), BatchInput{
			PeriodID:    f.period.ID,
			EmployeeIDs: assigned,
			Persist:     true,
		})

		require.NoError(t, err)
		assert.Equal(t, 6, summary.PersistedItems)
		f.entryRepo.AssertExpectations(t)
	})

	t.Run("re-run produces the same upsert set", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		svc := newBatchService(f, nil, testBatchConfig())

		assigned := []uuid.UUID{uuid.New()}
		f.expectBatch(assigned, assigned)
		entryID := uuid.New()
		f.entryRepo.On("FindEntryIDs", mock.Anything, f.period.ID, mock.Anything).
			Return(map[uuid.UUID]uuid.UUID{assigned[0]: entryID}, nil)

		var captured [][]insurance.LineItem
		f.entryRepo.On("BulkUpsertLineItems", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = append(captured, args.Get(1).([]insurance.LineItem))
			}).Return(nil)

		input := BatchInput{PeriodID: f.period.ID, EmployeeIDs: assigned, Persist: true}
		_, err := svc.RunBatch(context.Background(), input)
		require.NoError(t, err)
		_, err = svc.RunBatch(context.Background(), input)
		require.NoError(t, err)

		require.Len(t, captured, 2)
		assert.Equal(t, captured[0], captured[1])
	})
}
