package insurance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/domain/shared"
	"github.com/payroll/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SingleCalculationInput identifies one (employee, type, role) computation.
type SingleCalculationInput struct {
	EmployeeID uuid.UUID
	PeriodID   uuid.UUID
	TypeKey    insurance.TypeKey
	IsEmployer bool
}

// EmployeeCalculationInput identifies a full per-employee computation.
type EmployeeCalculationInput struct {
	EmployeeID           uuid.UUID
	PeriodID             uuid.UUID
	IncludeOptionalTypes bool
	Persist              bool
}

// CalculationService computes contributions for single types and whole
// employees. Batch runs live in BatchService; this service covers the
// interactive paths.
type CalculationService struct {
	snapshots   *SnapshotService
	entryRepo   insurance.EntryRepository
	invalidator insurance.CacheInvalidator
	logger      *zap.Logger
}

// NewCalculationService creates a new CalculationService
func NewCalculationService(
	snapshots *SnapshotService,
	entryRepo insurance.EntryRepository,
	invalidator insurance.CacheInvalidator,
	logger *zap.Logger,
) *CalculationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculationService{
		snapshots:   snapshots,
		entryRepo:   entryRepo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CalculateSingle computes one insurance type for one payer role. Setup
// failures (unknown type, missing period, missing assignment) are returned as
// errors; per-type failures come back inside the detail.
func (s *CalculationService) CalculateSingle(ctx context.Context, input SingleCalculationInput) (*insurance.CalculationDetail, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "calculation", "CalculateSingle",
		telemetry.String(telemetry.AttrEmployeeID, input.EmployeeID.String()),
		telemetry.String(telemetry.AttrInsuranceType, string(input.TypeKey)))
	defer span.End()

	if !input.TypeKey.IsValid() {
		return nil, insurance.ErrUnknownInsuranceType
	}

	run, err := s.snapshots.LoadRunContext(ctx, input.PeriodID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	snapshot, err := s.snapshots.Resolve(ctx, run, input.EmployeeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	role := insurance.RoleEmployee
	if input.IsEmployer {
		role = insurance.RoleEmployer
	}
	detail := insurance.Calculate(snapshot, input.TypeKey, role)
	return &detail, nil
}

// CalculateEmployee computes every contributing type for one employee and
// optionally persists the resulting line items. Resolution failures for the
// employee are data, not errors: the result carries the failure code.
func (s *CalculationService) CalculateEmployee(ctx context.Context, input EmployeeCalculationInput) (*insurance.BatchItemResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "calculation", "CalculateEmployee",
		telemetry.String(telemetry.AttrEmployeeID, input.EmployeeID.String()),
		telemetry.String(telemetry.AttrPeriodID, input.PeriodID.String()))
	defer span.End()

	run, err := s.snapshots.LoadRunContext(ctx, input.PeriodID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	snapshot, err := s.snapshots.Resolve(ctx, run, input.EmployeeID)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == insurance.CodeCategoryAssignmentMissing {
			result := insurance.FailedBatchItem(input.EmployeeID, domainErr.Code, domainErr.Message)
			return &result, nil
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := insurance.Aggregate(snapshot, input.IncludeOptionalTypes)

	if input.Persist && result.Success {
		if err := s.persistResult(ctx, run, snapshot, &result); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	return &result, nil
}

// persistResult writes the employee's line items and invalidates cached
// summaries for the period.
func (s *CalculationService) persistResult(ctx context.Context, run *RunContext, snapshot *insurance.EmployeeSnapshot, result *insurance.BatchItemResult) error {
	entryID, err := s.entryRepo.FindEntryID(ctx, snapshot.EmployeeID, run.Period.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return insurance.ErrPayrollRecordMissing
		}
		return fmt.Errorf("failed to load payroll entry: %w", err)
	}

	items := BuildLineItems(run.Catalog, entryID, run.Period.ID, result.Details)
	if len(items) == 0 {
		return nil
	}
	if err := s.entryRepo.BulkUpsertLineItems(ctx, items); err != nil {
		return fmt.Errorf("failed to write line items: %w", err)
	}
	result.PersistedItems = len(items)

	if s.invalidator != nil {
		if err := s.invalidator.InvalidatePeriod(ctx, insurance.CacheRefreshMessage{
			PeriodID:    run.Period.ID,
			EmployeeIDs: []uuid.UUID{snapshot.EmployeeID},
		}); err != nil {
			s.logger.Warn("Cache invalidation failed after persist",
				zap.String("employee_id", snapshot.EmployeeID.String()),
				zap.String("period_id", run.Period.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

// BuildLineItems turns successful calculation details into write-side line
// items. A detail only produces an item when its type has a ledger component
// configured for the payer role; amounts are never negative because clamping
// floors at the rule's base floor and rates are non-negative.
func BuildLineItems(catalog *insurance.TypeCatalog, entryID, periodID uuid.UUID, details []insurance.CalculationDetail) []insurance.LineItem {
	items := make([]insurance.LineItem, 0, len(details))
	for _, detail := range details {
		if !detail.Success || detail.Amount.IsNegative() {
			continue
		}
		insType, ok := catalog.ByKey(detail.TypeKey)
		if !ok {
			continue
		}
		componentID := insType.LedgerComponentID(detail.Role)
		if componentID == nil {
			continue
		}
		items = append(items, insurance.LineItem{
			PayrollEntryID:    entryID,
			LedgerComponentID: *componentID,
			PeriodID:          periodID,
			Amount:            detail.Amount,
			Note:              fmt.Sprintf("%s (%s)", insType.Name, detail.Role),
		})
	}
	return items
}
