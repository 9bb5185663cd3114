package insurance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TypeKey identifies an insurance type by its stable system key.
type TypeKey string

const (
	TypePension             TypeKey = "pension"
	TypeMedical             TypeKey = "medical"
	TypeUnemployment        TypeKey = "unemployment"
	TypeWorkInjury          TypeKey = "work_injury"
	TypeMaternity           TypeKey = "maternity"
	TypeSeriousIllness      TypeKey = "serious_illness"
	TypeHousingFund         TypeKey = "housing_fund"
	TypeOccupationalPension TypeKey = "occupational_pension"
)

// AllTypeKeys lists every known insurance type in canonical display order.
var AllTypeKeys = []TypeKey{
	TypePension,
	TypeMedical,
	TypeUnemployment,
	TypeWorkInjury,
	TypeMaternity,
	TypeSeriousIllness,
	TypeHousingFund,
	TypeOccupationalPension,
}

// optionalTypeKeys are only computed when the caller opts in.
var optionalTypeKeys = map[TypeKey]bool{
	TypeSeriousIllness:      true,
	TypeHousingFund:         true,
	TypeOccupationalPension: true,
}

// IsValid reports whether the key is one of the known insurance types.
func (k TypeKey) IsValid() bool {
	for _, known := range AllTypeKeys {
		if k == known {
			return true
		}
	}
	return false
}

// IsOptional reports whether the type is gated behind includeOptionalTypes.
func (k TypeKey) IsOptional() bool {
	return optionalTypeKeys[k]
}

// PayerRole distinguishes the employee-side and employer-side contribution.
type PayerRole string

const (
	RoleEmployee PayerRole = "employee"
	RoleEmployer PayerRole = "employer"
)

// InsuranceType is immutable reference data describing one insurance scheme.
type InsuranceType struct {
	ID                        uuid.UUID
	Key                       TypeKey
	Name                      string
	HasEmployeeContribution   bool
	HasEmployerContribution   bool
	EmployeeLedgerComponentID *uuid.UUID
	EmployerLedgerComponentID *uuid.UUID
}

// LedgerComponentID returns the ledger component configured for the given
// payer role, or nil when the type has no line item for that side.
func (t *InsuranceType) LedgerComponentID(role PayerRole) *uuid.UUID {
	if role == RoleEmployer {
		return t.EmployerLedgerComponentID
	}
	return t.EmployeeLedgerComponentID
}

// EmployeeCategory is a node in the personnel category tree. Root categories
// have a nil parent.
type EmployeeCategory struct {
	ID       uuid.UUID
	Name     string
	ParentID *uuid.UUID
}

// CategoryAssignment binds an employee to exactly one effective category for
// a payroll period.
type CategoryAssignment struct {
	EmployeeID uuid.UUID
	PeriodID   uuid.UUID
	CategoryID uuid.UUID
}

// ContributionBase is the monetary input for one (employee, type, period).
type ContributionBase struct {
	EmployeeID uuid.UUID
	TypeID     uuid.UUID
	TypeKey    TypeKey
	PeriodID   uuid.UUID
	Amount     decimal.Decimal
}

// InsuranceRule is one dated version of the contribution parameters for an
// (insurance type, employee category) pair. Rules are never mutated in place;
// a change closes the prior row's EffectiveUntil and inserts a new row.
type InsuranceRule struct {
	ID             uuid.UUID
	TypeID         uuid.UUID
	CategoryID     uuid.UUID
	Applicable     bool
	EmployeeRate   decimal.Decimal
	EmployerRate   decimal.Decimal
	BaseFloor      decimal.Decimal
	BaseCeiling    *decimal.Decimal
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
}

// ActiveAt reports whether the rule is valid on the reference date. The
// interval is half-open: a rule whose EffectiveUntil equals the reference
// date is already closed.
func (r *InsuranceRule) ActiveAt(ref time.Time) bool {
	if r.EffectiveFrom.After(ref) {
		return false
	}
	return r.EffectiveUntil == nil || r.EffectiveUntil.After(ref)
}

// ClampBase constrains a contribution base to the rule's [floor, ceiling]
// window. A nil ceiling leaves the base unbounded above.
func (r *InsuranceRule) ClampBase(base decimal.Decimal) decimal.Decimal {
	adjusted := base
	if r.BaseCeiling != nil && adjusted.GreaterThan(*r.BaseCeiling) {
		adjusted = *r.BaseCeiling
	}
	if adjusted.LessThan(r.BaseFloor) {
		adjusted = r.BaseFloor
	}
	return adjusted
}

// Rate returns the contribution rate for the given payer role.
func (r *InsuranceRule) Rate(role PayerRole) decimal.Decimal {
	if role == RoleEmployer {
		return r.EmployerRate
	}
	return r.EmployeeRate
}

// PayrollPeriod is the payroll cycle the engine computes against.
type PayrollPeriod struct {
	ID        uuid.UUID
	Name      string
	StartDate time.Time
	EndDate   time.Time
	PayDate   time.Time
}

// ReferenceDate is the date used to select temporally valid rules.
func (p *PayrollPeriod) ReferenceDate() time.Time {
	return p.EndDate
}

// EmployeeSnapshot bundles everything needed to compute one employee's
// contributions for a period. It is assembled once by the resolver and then
// treated as immutable; the calculator and aggregator only read from it.
type EmployeeSnapshot struct {
	EmployeeID    uuid.UUID
	PeriodID      uuid.UUID
	ReferenceDate time.Time
	CategoryID    uuid.UUID
	Catalog       *TypeCatalog
	Bases         map[TypeKey]ContributionBase
	Rules         map[uuid.UUID]InsuranceRule
}

// RuleForType returns the resolved rule for an insurance type, if any.
func (s *EmployeeSnapshot) RuleForType(typeID uuid.UUID) *InsuranceRule {
	if rule, ok := s.Rules[typeID]; ok {
		return &rule
	}
	return nil
}

// LineItem is the write-side shape of one computed amount. Upserts are keyed
// by (PayrollEntryID, LedgerComponentID), which makes batch re-runs overwrite
// rather than duplicate.
type LineItem struct {
	PayrollEntryID    uuid.UUID
	LedgerComponentID uuid.UUID
	PeriodID          uuid.UUID
	Amount            decimal.Decimal
	Note              string
}
