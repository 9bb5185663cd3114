// Package insurance contains the application services that orchestrate
// contribution calculation: snapshot resolution, per-employee and batch
// computation, persistence and export.
package insurance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RunContext carries the per-run reference data every snapshot shares: the
// period, the type catalog and the category tree. It is loaded once per
// request or batch and never mutated afterwards.
type RunContext struct {
	Period  *insurance.PayrollPeriod
	Catalog *insurance.TypeCatalog
	Tree    *insurance.CategoryTree
}

// ResolveFailure describes an employee whose snapshot could not be assembled.
type ResolveFailure struct {
	EmployeeID uuid.UUID
	Code       string
	Reason     string
}

// SnapshotService assembles employee snapshots from the read stores. Rule
// resolution walks the category lineage from the employee's own category up
// to the root, so a category without its own rule inherits the nearest
// ancestor's.
type SnapshotService struct {
	periodRepo   insurance.PeriodRepository
	categoryRepo insurance.CategoryRepository
	typeRepo     insurance.TypeRepository
	baseRepo     insurance.BaseRepository
	ruleRepo     insurance.RuleRepository
	logger       *zap.Logger
}

// NewSnapshotService creates a new SnapshotService
func NewSnapshotService(
	periodRepo insurance.PeriodRepository,
	categoryRepo insurance.CategoryRepository,
	typeRepo insurance.TypeRepository,
	baseRepo insurance.BaseRepository,
	ruleRepo insurance.RuleRepository,
	logger *zap.Logger,
) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		periodRepo:   periodRepo,
		categoryRepo: categoryRepo,
		typeRepo:     typeRepo,
		baseRepo:     baseRepo,
		ruleRepo:     ruleRepo,
		logger:       logger,
	}
}

// LoadRunContext loads the shared reference data for a run. A missing period
// or an empty type catalog aborts the run; everything downstream needs both.
func (s *SnapshotService) LoadRunContext(ctx context.Context, periodID uuid.UUID) (*RunContext, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, insurance.ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to load period: %w", err)
	}

	types, err := s.typeRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", insurance.ErrRuleCatalogUnavailable, err)
	}
	if len(types) == 0 {
		return nil, insurance.ErrRuleCatalogUnavailable
	}

	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	tree, err := insurance.NewCategoryTree(categories)
	if err != nil {
		return nil, fmt.Errorf("failed to build category tree: %w", err)
	}

	return &RunContext{
		Period:  period,
		Catalog: insurance.NewTypeCatalog(types),
		Tree:    tree,
	}, nil
}

// Resolve assembles the snapshot for a single employee.
func (s *SnapshotService) Resolve(ctx context.Context, run *RunContext, employeeID uuid.UUID) (*insurance.EmployeeSnapshot, error) {
	assignment, err := s.categoryRepo.FindAssignment(ctx, employeeID, run.Period.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, insurance.ErrCategoryAssignmentMissing
		}
		return nil, fmt.Errorf("failed to load category assignment: %w", err)
	}

	bases, err := s.baseRepo.FindByEmployee(ctx, employeeID, run.Period.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contribution bases: %w", err)
	}

	rules, err := s.resolveRules(ctx, run, []uuid.UUID{assignment.CategoryID})
	if err != nil {
		return nil, err
	}

	return s.buildSnapshot(run, employeeID, assignment.CategoryID, bases, rules), nil
}

// ResolveBatch assembles snapshots for many employees in chunks. A failure to
// resolve one employee never aborts the chunk; it is returned as a
// ResolveFailure alongside the successful snapshots.
func (s *SnapshotService) ResolveBatch(ctx context.Context, run *RunContext, employeeIDs []uuid.UUID, chunkSize int) ([]*insurance.EmployeeSnapshot, []ResolveFailure, error) {
	if chunkSize <= 0 {
		chunkSize = 50
	}

	snapshots := make([]*insurance.EmployeeSnapshot, 0, len(employeeIDs))
	var failures []ResolveFailure

	for start := 0; start < len(employeeIDs); start += chunkSize {
		end := min(start+chunkSize, len(employeeIDs))
		chunk := employeeIDs[start:end]

		resolved, failed, err := s.resolveChunk(ctx, run, chunk)
		if err != nil {
			return nil, nil, err
		}
		snapshots = append(snapshots, resolved...)
		failures = append(failures, failed...)
	}

	return snapshots, failures, nil
}

func (s *SnapshotService) resolveChunk(ctx context.Context, run *RunContext, employeeIDs []uuid.UUID) ([]*insurance.EmployeeSnapshot, []ResolveFailure, error) {
	assignments, err := s.categoryRepo.FindAssignments(ctx, run.Period.ID, employeeIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load category assignments: %w", err)
	}
	assignmentByEmployee := make(map[uuid.UUID]insurance.CategoryAssignment, len(assignments))
	categoryIDs := make([]uuid.UUID, 0, len(assignments))
	seenCategories := make(map[uuid.UUID]bool)
	for _, a := range assignments {
		assignmentByEmployee[a.EmployeeID] = a
		if !seenCategories[a.CategoryID] {
			seenCategories[a.CategoryID] = true
			categoryIDs = append(categoryIDs, a.CategoryID)
		}
	}

	bases, err := s.baseRepo.FindByEmployees(ctx, run.Period.ID, employeeIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load contribution bases: %w", err)
	}
	basesByEmployee := make(map[uuid.UUID][]insurance.ContributionBase)
	for _, b := range bases {
		basesByEmployee[b.EmployeeID] = append(basesByEmployee[b.EmployeeID], b)
	}

	rulesByCategory, err := s.resolveRules(ctx, run, categoryIDs)
	if err != nil {
		return nil, nil, err
	}

	snapshots := make([]*insurance.EmployeeSnapshot, 0, len(employeeIDs))
	var failures []ResolveFailure
	for _, employeeID := range employeeIDs {
		assignment, ok := assignmentByEmployee[employeeID]
		if !ok {
			failures = append(failures, ResolveFailure{
				EmployeeID: employeeID,
				Code:       insurance.CodeCategoryAssignmentMissing,
				Reason:     "no category assignment for employee in period",
			})
			continue
		}
		snapshots = append(snapshots, s.buildSnapshot(run, employeeID, assignment.CategoryID, basesByEmployee[employeeID], rulesByCategory))
	}

	return snapshots, failures, nil
}

// resolveRules loads all rule versions active on the period's reference date
// for the given categories plus their ancestors, then picks one rule per
// (type, category) with nearest-ancestor fallback.
func (s *SnapshotService) resolveRules(ctx context.Context, run *RunContext, categoryIDs []uuid.UUID) (map[uuid.UUID]map[uuid.UUID]insurance.InsuranceRule, error) {
	if len(categoryIDs) == 0 {
		return map[uuid.UUID]map[uuid.UUID]insurance.InsuranceRule{}, nil
	}

	lineages := make(map[uuid.UUID][]uuid.UUID, len(categoryIDs))
	queryIDs := make([]uuid.UUID, 0, len(categoryIDs)*2)
	seen := make(map[uuid.UUID]bool)
	for _, categoryID := range categoryIDs {
		lineage := run.Tree.Lineage(categoryID)
		if len(lineage) == 0 {
			// unknown category, fall back to the bare ID so a direct
			// rule still matches
			lineage = []uuid.UUID{categoryID}
		}
		lineages[categoryID] = lineage
		for _, id := range lineage {
			if !seen[id] {
				seen[id] = true
				queryIDs = append(queryIDs, id)
			}
		}
	}

	ref := run.Period.ReferenceDate()
	rows, err := s.ruleRepo.FindActive(ctx, run.Catalog.TypeIDs(), queryIDs, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load insurance rules: %w", err)
	}

	type pair struct{ typeID, categoryID uuid.UUID }
	grouped := make(map[pair][]insurance.InsuranceRule)
	for _, row := range rows {
		p := pair{row.TypeID, row.CategoryID}
		grouped[p] = append(grouped[p], row)
	}

	// ruleFor walks the lineage nearest-first and returns the first
	// category that has an active rule version for the type.
	ruleFor := func(typeID uuid.UUID, lineage []uuid.UUID) *insurance.InsuranceRule {
		for _, categoryID := range lineage {
			versions, ok := grouped[pair{typeID, categoryID}]
			if !ok {
				continue
			}
			resolution := insurance.NewRuleSet(typeID, categoryID, versions).ActiveAt(ref)
			if resolution.Rule == nil {
				continue
			}
			if resolution.Overlap {
				s.logger.Warn("Overlapping insurance rule versions, latest effective_from wins",
					zap.String("insurance_type_id", typeID.String()),
					zap.String("category_id", categoryID.String()),
					zap.Time("reference_date", ref))
			}
			return resolution.Rule
		}
		return nil
	}

	resolved := make(map[uuid.UUID]map[uuid.UUID]insurance.InsuranceRule, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		perType := make(map[uuid.UUID]insurance.InsuranceRule)
		for _, typeID := range run.Catalog.TypeIDs() {
			if rule := ruleFor(typeID, lineages[categoryID]); rule != nil {
				perType[typeID] = *rule
			}
		}
		resolved[categoryID] = perType
	}
	return resolved, nil
}

func (s *SnapshotService) buildSnapshot(run *RunContext, employeeID, categoryID uuid.UUID, bases []insurance.ContributionBase, rulesByCategory map[uuid.UUID]map[uuid.UUID]insurance.InsuranceRule) *insurance.EmployeeSnapshot {
	baseMap := make(map[insurance.TypeKey]insurance.ContributionBase, len(bases))
	for _, b := range bases {
		key := b.TypeKey
		if key == "" {
			if t, ok := run.Catalog.ByID(b.TypeID); ok {
				key = t.Key
			}
		}
		if key != "" {
			baseMap[key] = b
		}
	}

	return &insurance.EmployeeSnapshot{
		EmployeeID:    employeeID,
		PeriodID:      run.Period.ID,
		ReferenceDate: run.Period.ReferenceDate(),
		CategoryID:    categoryID,
		Catalog:       run.Catalog,
		Bases:         baseMap,
		Rules:         rulesByCategory[categoryID],
	}
}
