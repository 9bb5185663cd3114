package insurance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PeriodRepository reads payroll period reference data.
type PeriodRepository interface {
	// FindByID returns the period or shared.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*PayrollPeriod, error)
}

// CategoryRepository reads the personnel category tree and per-period
// category assignments.
type CategoryRepository interface {
	// FindAll returns every category row for building the tree.
	FindAll(ctx context.Context) ([]EmployeeCategory, error)

	// FindAssignment returns the single effective assignment for an
	// employee in a period, or shared.ErrNotFound.
	FindAssignment(ctx context.Context, employeeID, periodID uuid.UUID) (*CategoryAssignment, error)

	// FindAssignments returns the assignments for a set of employees in a
	// period. Employees without an assignment are simply absent from the
	// result; the caller decides how to report them.
	FindAssignments(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) ([]CategoryAssignment, error)

	// ListAssignedEmployeeIDs returns every employee with an assignment in
	// the period, for batch runs without an explicit employee list.
	ListAssignedEmployeeIDs(ctx context.Context, periodID uuid.UUID) ([]uuid.UUID, error)
}

// TypeRepository reads the insurance type catalog.
type TypeRepository interface {
	FindAll(ctx context.Context) ([]InsuranceType, error)
}

// BaseRepository reads contribution bases.
type BaseRepository interface {
	// FindByEmployee returns all base rows for one employee in a period.
	FindByEmployee(ctx context.Context, employeeID, periodID uuid.UUID) ([]ContributionBase, error)

	// FindByEmployees returns base rows for a set of employees in a period.
	FindByEmployees(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) ([]ContributionBase, error)
}

// RuleRepository reads insurance rule versions.
type RuleRepository interface {
	// FindActive returns the rule rows for the given type and category
	// sets that are valid on the reference date (effective_from <= ref and
	// effective_until absent or after ref). Overlapping versions are
	// returned as-is; selection happens in the domain layer.
	FindActive(ctx context.Context, typeIDs, categoryIDs []uuid.UUID, ref time.Time) ([]InsuranceRule, error)
}

// EntryRepository reads payroll entries and writes computed line items.
type EntryRepository interface {
	// FindEntryID returns the payroll entry identifier for an employee in
	// a period, or shared.ErrNotFound.
	FindEntryID(ctx context.Context, employeeID, periodID uuid.UUID) (uuid.UUID, error)

	// FindEntryIDs maps employee IDs to payroll entry IDs for a period.
	// Employees without an entry are absent from the map.
	FindEntryIDs(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)

	// BulkUpsertLineItems writes line items keyed by
	// (payroll_entry_id, ledger_component_id); existing rows are
	// overwritten, so re-running a batch never duplicates items.
	BulkUpsertLineItems(ctx context.Context, items []LineItem) error
}
