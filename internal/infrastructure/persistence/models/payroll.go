package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/shopspring/decimal"
)

// PayrollPeriodModel is the persistence model for a payroll cycle.
type PayrollPeriodModel struct {
	BaseModel
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null;index"`
	PayDate   time.Time `gorm:"type:date;not null"`
}

// TableName returns the table name for GORM
func (PayrollPeriodModel) TableName() string {
	return "payroll_periods"
}

// ToDomain converts the persistence model to a domain PayrollPeriod.
func (m *PayrollPeriodModel) ToDomain() *insurance.PayrollPeriod {
	return &insurance.PayrollPeriod{
		ID:        m.ID,
		Name:      m.Name,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
		PayDate:   m.PayDate,
	}
}

// EmployeeCategoryModel is the persistence model for a personnel category node.
type EmployeeCategoryModel struct {
	BaseModel
	Name     string     `gorm:"type:varchar(100);not null"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (EmployeeCategoryModel) TableName() string {
	return "employee_categories"
}

// ToDomain converts the persistence model to a domain EmployeeCategory.
func (m *EmployeeCategoryModel) ToDomain() insurance.EmployeeCategory {
	return insurance.EmployeeCategory{
		ID:       m.ID,
		Name:     m.Name,
		ParentID: m.ParentID,
	}
}

// CategoryAssignmentModel binds an employee to a category for one period.
// The unique index enforces the invariant of exactly one effective
// assignment per (employee, period).
type CategoryAssignmentModel struct {
	BaseModel
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_employee_period,priority:1"`
	PeriodID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_employee_period,priority:2;index"`
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (CategoryAssignmentModel) TableName() string {
	return "category_assignments"
}

// ToDomain converts the persistence model to a domain CategoryAssignment.
func (m *CategoryAssignmentModel) ToDomain() insurance.CategoryAssignment {
	return insurance.CategoryAssignment{
		EmployeeID: m.EmployeeID,
		PeriodID:   m.PeriodID,
		CategoryID: m.CategoryID,
	}
}

// InsuranceTypeModel is the persistence model for the insurance type catalog.
type InsuranceTypeModel struct {
	BaseModel
	Key                       string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name                      string     `gorm:"type:varchar(100);not null"`
	HasEmployeeContribution   bool       `gorm:"not null;default:true"`
	HasEmployerContribution   bool       `gorm:"not null;default:true"`
	EmployeeLedgerComponentID *uuid.UUID `gorm:"type:uuid"`
	EmployerLedgerComponentID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InsuranceTypeModel) TableName() string {
	return "insurance_types"
}

// ToDomain converts the persistence model to a domain InsuranceType.
func (m *InsuranceTypeModel) ToDomain() insurance.InsuranceType {
	return insurance.InsuranceType{
		ID:                        m.ID,
		Key:                       insurance.TypeKey(m.Key),
		Name:                      m.Name,
		HasEmployeeContribution:   m.HasEmployeeContribution,
		HasEmployerContribution:   m.HasEmployerContribution,
		EmployeeLedgerComponentID: m.EmployeeLedgerComponentID,
		EmployerLedgerComponentID: m.EmployerLedgerComponentID,
	}
}

// ContributionBaseModel is the persistence model for one employee's
// contribution base for a type and period.
type ContributionBaseModel struct {
	BaseModel
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_base_employee_type_period,priority:1"`
	InsuranceTypeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_base_employee_type_period,priority:2"`
	PeriodID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_base_employee_type_period,priority:3;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	InsuranceType *InsuranceTypeModel `gorm:"foreignKey:InsuranceTypeID"`
}

// TableName returns the table name for GORM
func (ContributionBaseModel) TableName() string {
	return "contribution_bases"
}

// ToDomain converts the persistence model to a domain ContributionBase.
// The type key is populated when the InsuranceType association is loaded.
func (m *ContributionBaseModel) ToDomain() insurance.ContributionBase {
	base := insurance.ContributionBase{
		EmployeeID: m.EmployeeID,
		TypeID:     m.InsuranceTypeID,
		PeriodID:   m.PeriodID,
		Amount:     m.Amount,
	}
	if m.InsuranceType != nil {
		base.TypeKey = insurance.TypeKey(m.InsuranceType.Key)
	}
	return base
}

// InsuranceRuleModel is one dated version of the contribution parameters for
// an (insurance type, employee category) pair.
type InsuranceRuleModel struct {
	BaseModel
	InsuranceTypeID uuid.UUID        `gorm:"type:uuid;not null;index:idx_rule_type_category,priority:1"`
	CategoryID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_rule_type_category,priority:2"`
	Applicable      bool             `gorm:"not null;default:true"`
	EmployeeRate    decimal.Decimal  `gorm:"type:decimal(10,6);not null"`
	EmployerRate    decimal.Decimal  `gorm:"type:decimal(10,6);not null"`
	BaseFloor       decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	BaseCeiling     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	EffectiveFrom   time.Time        `gorm:"type:date;not null;index"`
	EffectiveUntil  *time.Time       `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (InsuranceRuleModel) TableName() string {
	return "insurance_rules"
}

// ToDomain converts the persistence model to a domain InsuranceRule.
func (m *InsuranceRuleModel) ToDomain() insurance.InsuranceRule {
	return insurance.InsuranceRule{
		ID:             m.ID,
		TypeID:         m.InsuranceTypeID,
		CategoryID:     m.CategoryID,
		Applicable:     m.Applicable,
		EmployeeRate:   m.EmployeeRate,
		EmployerRate:   m.EmployerRate,
		BaseFloor:      m.BaseFloor,
		BaseCeiling:    m.BaseCeiling,
		EffectiveFrom:  m.EffectiveFrom,
		EffectiveUntil: m.EffectiveUntil,
	}
}

// PayrollEntryModel is the payroll record line items attach to. The engine
// only reads identifiers from it; amounts on the entry itself are maintained
// by upstream payroll workflows.
type PayrollEntryModel struct {
	BaseModel
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entry_employee_period,priority:1"`
	PeriodID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_entry_employee_period,priority:2;index"`
}

// TableName returns the table name for GORM
func (PayrollEntryModel) TableName() string {
	return "payroll_entries"
}

// PayrollLineItemModel is one computed amount written into a payroll entry.
// The unique index on (payroll_entry_id, ledger_component_id) is what makes
// batch re-runs idempotent.
type PayrollLineItemModel struct {
	BaseModel
	PayrollEntryID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_line_item_entry_component,priority:1"`
	LedgerComponentID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_line_item_entry_component,priority:2"`
	PeriodID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Note              string          `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (PayrollLineItemModel) TableName() string {
	return "payroll_line_items"
}

// FromDomain populates the persistence model from a domain LineItem.
func (m *PayrollLineItemModel) FromDomain(item insurance.LineItem) {
	m.PayrollEntryID = item.PayrollEntryID
	m.LedgerComponentID = item.LedgerComponentID
	m.PeriodID = item.PeriodID
	m.Amount = item.Amount
	m.Note = item.Note
}
