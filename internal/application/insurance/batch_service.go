package insurance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/infrastructure/config"
	"github.com/payroll/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchInput identifies a batch contribution run. An empty EmployeeIDs slice
// means every employee with a category assignment in the period.
type BatchInput struct {
	PeriodID             uuid.UUID
	EmployeeIDs          []uuid.UUID
	IncludeOptionalTypes bool
	Persist              bool
}

// BatchRunSummary is the outcome of a batch run. Per-employee failures live
// inside Results; FailedWriteChunks counts flush chunks that exhausted their
// retries.
type BatchRunSummary struct {
	PeriodID          uuid.UUID                   `json:"period_id"`
	Total             int                         `json:"total"`
	Succeeded         int                         `json:"succeeded"`
	Failed            int                         `json:"failed"`
	PersistedItems    int                         `json:"persisted_items"`
	FailedWriteChunks int                         `json:"failed_write_chunks"`
	Results           []insurance.BatchItemResult `json:"results"`
}

// BatchService orchestrates batch contribution runs: chunked snapshot
// resolution, bounded concurrent computation, chunked idempotent persistence
// and cache invalidation.
type BatchService struct {
	snapshots   *SnapshotService
	entryRepo   insurance.EntryRepository
	invalidator insurance.CacheInvalidator
	cfg         config.BatchConfig
	logger      *zap.Logger
}

// NewBatchService creates a new BatchService
func NewBatchService(
	snapshots *SnapshotService,
	entryRepo insurance.EntryRepository,
	invalidator insurance.CacheInvalidator,
	cfg config.BatchConfig,
	logger *zap.Logger,
) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		snapshots:   snapshots,
		entryRepo:   entryRepo,
		invalidator: invalidator,
		cfg:         cfg,
		logger:      logger,
	}
}

// RunBatch executes a batch contribution run. Only setup failures (missing
// period, unloadable catalog, employee listing) return an error; everything
// per-employee is reported inside the summary.
func (s *BatchService) RunBatch(ctx context.Context, input BatchInput) (*BatchRunSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", "RunBatch",
		telemetry.String(telemetry.AttrPeriodID, input.PeriodID.String()),
		telemetry.Int(telemetry.AttrBatchSize, len(input.EmployeeIDs)))
	defer span.End()

	started := time.Now()

	run, err := s.snapshots.LoadRunContext(ctx, input.PeriodID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	employeeIDs := input.EmployeeIDs
	if len(employeeIDs) == 0 {
		employeeIDs, err = s.snapshots.categoryRepo.ListAssignedEmployeeIDs(ctx, input.PeriodID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to list assigned employees: %w", err)
		}
	}

	snapshots, resolveFailures, err := s.snapshots.ResolveBatch(ctx, run, employeeIDs, s.cfg.ResolveChunkSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	results := s.computeAll(ctx, snapshots, input.IncludeOptionalTypes)
	for _, failure := range resolveFailures {
		results = append(results, insurance.FailedBatchItem(failure.EmployeeID, failure.Code, failure.Reason))
	}

	summary := &BatchRunSummary{
		PeriodID: input.PeriodID,
		Total:    len(results),
		Results:  results,
	}

	if input.Persist {
		if err := s.persistResults(ctx, run, snapshots, summary); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	for i := range summary.Results {
		if summary.Results[i].Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	s.logger.Info("Batch contribution run finished",
		zap.String("period_id", input.PeriodID.String()),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("persisted_items", summary.PersistedItems),
		zap.Int("failed_write_chunks", summary.FailedWriteChunks),
		zap.Duration("elapsed", time.Since(started)))

	return summary, nil
}

// computeAll aggregates every snapshot with bounded concurrency. Computation
// is pure, so goroutines only share the pre-sized results slice, each writing
// its own index.
func (s *BatchService) computeAll(ctx context.Context, snapshots []*insurance.EmployeeSnapshot, includeOptional bool) []insurance.BatchItemResult {
	groupSize := s.cfg.GroupSize
	if groupSize <= 0 {
		groupSize = 5
	}

	results := make([]insurance.BatchItemResult, len(snapshots))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(groupSize)
	for i, snapshot := range snapshots {
		g.Go(func() error {
			results[i] = insurance.Aggregate(snapshot, includeOptional)
			return nil
		})
	}
	// workers never return errors; Wait only synchronizes
	_ = g.Wait()
	return results
}

// writeChunk pairs a slice of line items with the indexes of the results that
// produced them, so a flush outcome can be attributed back per employee.
type writeChunk struct {
	items      []insurance.LineItem
	resultIdx  []int
	itemCounts []int
}

// persistResults maps successful results to payroll entries, buffers their
// line items and flushes in bounded concurrent chunks. A chunk that exhausts
// its retries marks its employees failed and bumps FailedWriteChunks instead
// of aborting the run.
func (s *BatchService) persistResults(ctx context.Context, run *RunContext, snapshots []*insurance.EmployeeSnapshot, summary *BatchRunSummary) error {
	successIdx := make([]int, 0, len(summary.Results))
	employeeIDs := make([]uuid.UUID, 0, len(summary.Results))
	for i := range summary.Results {
		if summary.Results[i].Success {
			successIdx = append(successIdx, i)
			employeeIDs = append(employeeIDs, summary.Results[i].EmployeeID)
		}
	}
	if len(successIdx) == 0 {
		return nil
	}

	entryIDs, err := s.entryRepo.FindEntryIDs(ctx, run.Period.ID, employeeIDs)
	if err != nil {
		return fmt.Errorf("failed to load payroll entries: %w", err)
	}

	chunkSize := s.cfg.WriteChunkSize
	if chunkSize <= 0 {
		chunkSize = 200
	}

	var chunks []*writeChunk
	current := &writeChunk{}
	for _, idx := range successIdx {
		result := &summary.Results[idx]
		entryID, ok := entryIDs[result.EmployeeID]
		if !ok {
			result.Success = false
			result.Message = "no payroll entry for employee in period"
			result.Details = append(result.Details, insurance.CalculationDetail{
				EmployeeID:  result.EmployeeID,
				Success:     false,
				ErrorCode:   insurance.CodePayrollRecordMissing,
				ErrorReason: "no payroll entry for employee in period",
			})
			continue
		}

		items := BuildLineItems(run.Catalog, entryID, run.Period.ID, result.Details)
		if len(items) == 0 {
			continue
		}
		current.items = append(current.items, items...)
		current.resultIdx = append(current.resultIdx, idx)
		current.itemCounts = append(current.itemCounts, len(items))
		if len(current.items) >= chunkSize {
			chunks = append(chunks, current)
			current = &writeChunk{}
		}
	}
	if len(current.items) > 0 {
		chunks = append(chunks, current)
	}

	var failedChunks atomic.Int64
	var persistedItems atomic.Int64
	var mu sync.Mutex

	concurrency := s.cfg.WriteConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, chunk := range chunks {
		g.Go(func() error {
			err := s.flushChunk(gctx, chunk.items)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failedChunks.Add(1)
				s.logger.Error("Line item chunk failed after retries",
					zap.String("period_id", run.Period.ID.String()),
					zap.Int("item_count", len(chunk.items)),
					zap.Error(err))
				for _, idx := range chunk.resultIdx {
					result := &summary.Results[idx]
					result.Success = false
					result.Message = "line item write failed after retries"
					result.Details = append(result.Details, insurance.CalculationDetail{
						EmployeeID:  result.EmployeeID,
						Success:     false,
						ErrorCode:   insurance.CodeWriteChunkFailed,
						ErrorReason: "line item write failed after retries",
					})
				}
				return nil
			}
			persistedItems.Add(int64(len(chunk.items)))
			for pos, idx := range chunk.resultIdx {
				summary.Results[idx].PersistedItems = chunk.itemCounts[pos]
			}
			return nil
		})
	}
	// chunk failures are recorded, never returned
	_ = g.Wait()

	summary.FailedWriteChunks = int(failedChunks.Load())
	summary.PersistedItems = int(persistedItems.Load())

	s.invalidateCache(ctx, run, snapshots)
	return nil
}

// flushChunk upserts one chunk with bounded retries and exponential backoff.
func (s *BatchService) flushChunk(ctx context.Context, items []insurance.LineItem) error {
	retries := s.cfg.WriteRetries
	if retries < 0 {
		retries = 0
	}
	baseDelay := s.cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := baseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if s.cfg.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		}
		lastErr = s.entryRepo.BulkUpsertLineItems(callCtx, items)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.DeadlineExceeded) {
			lastErr = fmt.Errorf("%w: %v", insurance.ErrDataStoreTimeout, lastErr)
		}
	}
	return lastErr
}

// invalidateCache drops cached summaries for the period after a persist run.
func (s *BatchService) invalidateCache(ctx context.Context, run *RunContext, snapshots []*insurance.EmployeeSnapshot) {
	if s.invalidator == nil {
		return
	}
	employeeIDs := make([]uuid.UUID, len(snapshots))
	for i, snapshot := range snapshots {
		employeeIDs[i] = snapshot.EmployeeID
	}
	if err := s.invalidator.InvalidatePeriod(ctx, insurance.CacheRefreshMessage{
		PeriodID:    run.Period.ID,
		EmployeeIDs: employeeIDs,
	}); err != nil {
		s.logger.Warn("Cache invalidation failed after batch persist",
			zap.String("period_id", run.Period.ID.String()),
			zap.Error(err))
	}
}
