package insurance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Shared fixture
// =============================================================================

type serviceFixture struct {
	periodRepo   *MockPeriodRepository
	categoryRepo *MockCategoryRepository
	typeRepo     *MockTypeRepository
	baseRepo     *MockBaseRepository
	ruleRepo     *MockRuleRepository
	entryRepo    *MockEntryRepository

	snapshots *SnapshotService

	period      *insurance.PayrollPeriod
	rootID      uuid.UUID
	staffID     uuid.UUID
	pensionType insurance.InsuranceType
	housingType insurance.InsuranceType
	pensionRule insurance.InsuranceRule
	housingRule insurance.InsuranceRule
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newServiceFixture builds the reference data shared by the service tests:
// a March 2025 period, a two-level category tree (root -> staff) and two
// insurance types. The pension rule sits on the root category so staff
// employees resolve it through lineage fallback.
func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		periodRepo:   new(MockPeriodRepository),
		categoryRepo: new(MockCategoryRepository),
		typeRepo:     new(MockTypeRepository),
		baseRepo:     new(MockBaseRepository),
		ruleRepo:     new(MockRuleRepository),
		entryRepo:    new(MockEntryRepository),
	}
	f.snapshots = NewSnapshotService(f.periodRepo, f.categoryRepo, f.typeRepo, f.baseRepo, f.ruleRepo, zap.NewNop())

	f.period = &insurance.PayrollPeriod{
		ID:        uuid.New(),
		Name:      "2025-03",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		PayDate:   time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
	}

	f.rootID = uuid.New()
	f.staffID = uuid.New()

	employeeComponent := uuid.New()
	employerComponent := uuid.New()
	f.pensionType = insurance.InsuranceType{
		ID:                        uuid.New(),
		Key:                       insurance.TypePension,
		Name:                      "Pension",
		HasEmployeeContribution:   true,
		HasEmployerContribution:   true,
		EmployeeLedgerComponentID: &employeeComponent,
		EmployerLedgerComponentID: &employerComponent,
	}
	housingComponent := uuid.New()
	f.housingType = insurance.InsuranceType{
		ID:                        uuid.New(),
		Key:                       insurance.TypeHousingFund,
		Name:                      "Housing Fund",
		HasEmployeeContribution:   true,
		HasEmployerContribution:   false,
		EmployeeLedgerComponentID: &housingComponent,
	}

	f.pensionRule = insurance.InsuranceRule{
		ID:            uuid.New(),
		TypeID:        f.pensionType.ID,
		CategoryID:    f.rootID,
		Applicable:    true,
		EmployeeRate:  dec("0.08"),
		EmployerRate:  dec("0.16"),
		BaseFloor:     dec("3000"),
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.housingRule = insurance.InsuranceRule{
		ID:            uuid.New(),
		TypeID:        f.housingType.ID,
		CategoryID:    f.rootID,
		Applicable:    true,
		EmployeeRate:  dec("0.07"),
		EmployerRate:  dec("0.07"),
		BaseFloor:     dec("0"),
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	return f
}

// expectRunContext wires the reference data loads every run performs.
func (f *serviceFixture) expectRunContext() {
	f.periodRepo.On("FindByID", mock.Anything, f.period.ID).Return(f.period, nil)
	f.typeRepo.On("FindAll", mock.Anything).
		Return([]insurance.InsuranceType{f.pensionType, f.housingType}, nil)
	f.categoryRepo.On("FindAll", mock.Anything).Return([]insurance.EmployeeCategory{
		{ID: f.rootID, Name: "All Employees"},
		{ID: f.staffID, Name: "Staff", ParentID: &f.rootID},
	}, nil)
}

func (f *serviceFixture) bases(employeeID uuid.UUID, pension, housing string) []insurance.ContributionBase {
	out := []insurance.ContributionBase{}
	if pension != "" {
		out = append(out, insurance.ContributionBase{
			EmployeeID: employeeID,
			TypeID:     f.pensionType.ID,
			TypeKey:    insurance.TypePension,
			PeriodID:   f.period.ID,
			Amount:     dec(pension),
		})
	}
	if housing != "" {
		out = append(out, insurance.ContributionBase{
			EmployeeID: employeeID,
			TypeID:     f.housingType.ID,
			TypeKey:    insurance.TypeHousingFund,
			PeriodID:   f.period.ID,
			Amount:     dec(housing),
		})
	}
	return out
}

// =============================================================================
// Tests
// =============================================================================

func TestSnapshotService_LoadRunContext(t *testing.T) {
	t.Run("missing period", func(t *testing.T) {
		f := newServiceFixture(t)
		f.periodRepo.On("FindByID", mock.Anything, f.period.ID).Return(nil, shared.ErrNotFound)

		run, err := f.snapshots.LoadRunContext(context.Background(), f.period.ID)

		assert.ErrorIs(t, err, insurance.ErrPeriodNotFound)
		assert.Nil(t, run)
	})

	t.Run("empty type catalog aborts", func(t *testing.T) {
		f := newServiceFixture(t)
		f.periodRepo.On("FindByID", mock.Anything, f.period.ID).Return(f.period, nil)
		f.typeRepo.On("FindAll", mock.Anything).Return([]insurance.InsuranceType{}, nil)

		_, err := f.snapshots.LoadRunContext(context.Background(), f.period.ID)

		assert.ErrorIs(t, err, insurance.ErrRuleCatalogUnavailable)
	})

	t.Run("loads period, catalog and tree", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()

		run, err := f.snapshots.LoadRunContext(context.Background(), f.period.ID)

		require.NoError(t, err)
		assert.Equal(t, f.period.ID, run.Period.ID)
		assert.Equal(t, 2, run.Catalog.Len())
		assert.Equal(t, 2, run.Tree.Len())
	})
}

func TestSnapshotService_Resolve(t *testing.T) {
	t.Run("inherits rules from ancestor category", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		employeeID := uuid.New()

		f.categoryRepo.On("FindAssignment", mock.Anything, employeeID, f.period.ID).
			Return(&insurance.CategoryAssignment{EmployeeID: employeeID, PeriodID: f.period.ID, CategoryID: f.staffID}, nil)
		f.baseRepo.On("FindByEmployee", mock.Anything, employeeID, f.period.ID).
			Return(f.bases(employeeID, "5000", ""), nil)
		f.ruleRepo.On("FindActive", mock.Anything, mock.Anything, mock.Anything, f.period.ReferenceDate()).
			Return([]insurance.InsuranceRule{f.pensionRule}, nil)

		run, err := f.snapshots.LoadRunContext(context.Background(), f.period.ID)
		require.NoError(t, err)
		snapshot, err := f.snapshots.Resolve(context.Background(), run, employeeID)
		require.NoError(t, err)

		// rule lives on root, employee sits on staff
		rule := snapshot.RuleForType(f.pensionType.ID)
		require.NotNil(t, rule)
		assert.Equal(t, f.rootID, rule.CategoryID)

		detail := insurance.Calculate(snapshot, insurance.TypePension, insurance.RoleEmployee)
		assert.True(t, detail.Success)
		assert.True(t, detail.Amount.Equal(dec("400.00")), "got %s", detail.Amount)
	})

	t.Run("missing assignment", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()
		employeeID := uuid.New()

		f.categoryRepo.On("FindAssignment", mock.Anything, employeeID, f.period.ID).
			Return(nil, shared.ErrNotFound)

		run, err := f.snapshots.LoadRunContext(context.Background(), f.period.ID)
		require.NoError(t, err)
		snapshot, err := f.snapshots.Resolve(context.Background(), run, employeeID)

		assert.ErrorIs(t, err, insurance.ErrCategoryAssignmentMissing)
		assert.Nil(t, snapshot)
	})
}

func TestSnapshotService_ResolveBatch(t *testing.T) {
	t.Run("isolates employees without assignment", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()

		assigned := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
		unassigned := uuid.New()
		all := append(append([]uuid.UUID{}, assigned...), unassigned)

		assignments := make([]insurance.CategoryAssignment, len(assigned))
		var allBases []insurance.ContributionBase
		for i, id := range assigned {
			assignments[i] = insurance.CategoryAssignment{EmployeeID: id, PeriodID: f.period.ID, CategoryID: f.staffID}
			allBases = append(allBases, f.bases(id, "5000", "")...)
		}

		f.categoryRepo.On("FindAssignments", mock.Anything, f.period.ID, all).Return(assignments, nil)
		f.baseRepo.On("FindByEmployees", mock.Anything, f.period.ID, all).Return(allBases, nil)
		f.ruleRepo.On("FindActive", mock.Anything, mock.Anything, mock.Anything, f.period.ReferenceDate()).
			Return([]insurance.InsuranceRule{f.pensionRule}, nil)

		run, err := f.snapshots.LoadRunContext(context.Background(), f.period.ID)
		require.NoError(t, err)

		snapshots, failures, err := f.snapshots.ResolveBatch(context.Background(), run, all, 50)

		require.NoError(t, err)
		assert.Len(t, snapshots, 4)
		require.Len(t, failures, 1)
		assert.Equal(t, unassigned, failures[0].EmployeeID)
		assert.Equal(t, insurance.CodeCategoryAssignmentMissing, failures[0].Code)
	})

	t.Run("splits work into chunks", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectRunContext()

		ids := make([]uuid.UUID, 5)
		for i := range ids {
			ids[i] = uuid.New()
		}

		// chunk size 2 means ceil(5/2) = 3 read round trips
		f.categoryRepo.On("FindAssignments", mock.Anything, f.period.ID, mock.Anything).
			Return([]insurance.CategoryAssignment{}, nil).Times(3)
		f.baseRepo.On("FindByEmployees", mock.Anything, f.period.ID, mock.Anything).
			Return([]insurance.ContributionBase{}, nil).Times(3)

		run, err := f.snapshots.LoadRunContext(context.Background(), f.period.ID)
		require.NoError(t, err)

		snapshots, failures, err := f.snapshots.ResolveBatch(context.Background(), run, ids, 2)

		require.NoError(t, err)
		assert.Empty(t, snapshots)
		assert.Len(t, failures, 5)
		f.categoryRepo.AssertExpectations(t)
		f.baseRepo.AssertExpectations(t)
	})
}
