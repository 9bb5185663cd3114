package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/domain/shared"
	"github.com/payroll/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPayrollEntryRepository implements insurance.EntryRepository using GORM
type GormPayrollEntryRepository struct {
	db *gorm.DB
}

// NewGormPayrollEntryRepository creates a new GormPayrollEntryRepository
func NewGormPayrollEntryRepository(db *gorm.DB) *GormPayrollEntryRepository {
	return &GormPayrollEntryRepository{db: db}
}

// FindEntryID returns the payroll entry identifier for an employee in a period
func (r *GormPayrollEntryRepository) FindEntryID(ctx context.Context, employeeID, periodID uuid.UUID) (uuid.UUID, error) {
	var model models.PayrollEntryModel
	if err := r.db.WithContext(ctx).
		Select("id").
		Where("employee_id = ? AND period_id = ?", employeeID, periodID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return model.ID, nil
}

// FindEntryIDs maps employee IDs to payroll entry IDs for a period. Employees
// without an entry are absent from the map.
func (r *GormPayrollEntryRepository) FindEntryIDs(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	if len(employeeIDs) == 0 {
		return map[uuid.UUID]uuid.UUID{}, nil
	}
	var entryModels []models.PayrollEntryModel
	if err := r.db.WithContext(ctx).
		Select("id", "employee_id").
		Where("period_id = ? AND employee_id IN ?", periodID, employeeIDs).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make(map[uuid.UUID]uuid.UUID, len(entryModels))
	for _, model := range entryModels {
		entries[model.EmployeeID] = model.ID
	}
	return entries, nil
}

// BulkUpsertLineItems writes line items in one statement. Conflicts on
// (payroll_entry_id, ledger_component_id) overwrite amount and note, which
// keeps repeated batch runs from duplicating rows.
func (r *GormPayrollEntryRepository) BulkUpsertLineItems(ctx context.Context, items []insurance.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	itemModels := make([]models.PayrollLineItemModel, len(items))
	for i, item := range items {
		itemModels[i].FromDomain(item)
		itemModels[i].ID = uuid.New()
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "payroll_entry_id"}, {Name: "ledger_component_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"amount",
				"note",
				"updated_at",
			}),
		}).
		Create(&itemModels).Error
}
