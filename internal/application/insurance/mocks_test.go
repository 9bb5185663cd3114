package insurance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockPeriodRepository is a mock implementation of PeriodRepository
type MockPeriodRepository struct {
	mock.Mock
}

func (m *MockPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*insurance.PayrollPeriod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insurance.PayrollPeriod), args.Error(1)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]insurance.EmployeeCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]insurance.EmployeeCategory), args.Error(1)
}

func (m *MockCategoryRepository) FindAssignment(ctx context.Context, employeeID, periodID uuid.UUID) (*insurance.CategoryAssignment, error) {
	args := m.Called(ctx, employeeID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insurance.CategoryAssignment), args.Error(1)
}

func (m *MockCategoryRepository) FindAssignments(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) ([]insurance.CategoryAssignment, error) {
	args := m.Called(ctx, periodID, employeeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]insurance.CategoryAssignment), args.Error(1)
}

func (m *MockCategoryRepository) ListAssignedEmployeeIDs(ctx context.Context, periodID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockTypeRepository is a mock implementation of TypeRepository
type MockTypeRepository struct {
	mock.Mock
}

func (m *MockTypeRepository) FindAll(ctx context.Context) ([]insurance.InsuranceType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]insurance.InsuranceType), args.Error(1)
}

// MockBaseRepository is a mock implementation of BaseRepository
type MockBaseRepository struct {
	mock.Mock
}

func (m *MockBaseRepository) FindByEmployee(ctx context.Context, employeeID, periodID uuid.UUID) ([]insurance.ContributionBase, error) {
	args := m.Called(ctx, employeeID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]insurance.ContributionBase), args.Error(1)
}

func (m *MockBaseRepository) FindByEmployees(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) ([]insurance.ContributionBase, error) {
	args := m.Called(ctx, periodID, employeeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]insurance.ContributionBase), args.Error(1)
}

// MockRuleRepository is a mock implementation of RuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) FindActive(ctx context.Context, typeIDs, categoryIDs []uuid.UUID, ref time.Time) ([]insurance.InsuranceRule, error) {
	args := m.Called(ctx, typeIDs, categoryIDs, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]insurance.InsuranceRule), args.Error(1)
}

// MockEntryRepository is a mock implementation of EntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) FindEntryID(ctx context.Context, employeeID, periodID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, employeeID, periodID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockEntryRepository) FindEntryIDs(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	args := m.Called(ctx, periodID, employeeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]uuid.UUID), args.Error(1)
}

func (m *MockEntryRepository) BulkUpsertLineItems(ctx context.Context, items []insurance.LineItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}
