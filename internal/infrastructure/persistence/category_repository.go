package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/domain/shared"
	"github.com/payroll/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCategoryRepository implements insurance.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindAll returns every personnel category row
func (r *GormCategoryRepository) FindAll(ctx context.Context) ([]insurance.EmployeeCategory, error) {
	var categoryModels []models.EmployeeCategoryModel
	if err := r.db.WithContext(ctx).Order("name asc").Find(&categoryModels).Error; err != nil {
		return nil, err
	}

	categories := make([]insurance.EmployeeCategory, len(categoryModels))
	for i, model := range categoryModels {
		categories[i] = model.ToDomain()
	}
	return categories, nil
}

// FindAssignment returns the single effective assignment for an employee in
// a period, or shared.ErrNotFound
func (r *GormCategoryRepository) FindAssignment(ctx context.Context, employeeID, periodID uuid.UUID) (*insurance.CategoryAssignment, error) {
	var model models.CategoryAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("employee_id = ? AND period_id = ?", employeeID, periodID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	assignment := model.ToDomain()
	return &assignment, nil
}

// FindAssignments returns the assignments for a set of employees in a period.
// Employees without an assignment are absent from the result.
func (r *GormCategoryRepository) FindAssignments(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) ([]insurance.CategoryAssignment, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	var assignmentModels []models.CategoryAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("period_id = ? AND employee_id IN ?", periodID, employeeIDs).
		Find(&assignmentModels).Error; err != nil {
		return nil, err
	}

	assignments := make([]insurance.CategoryAssignment, len(assignmentModels))
	for i, model := range assignmentModels {
		assignments[i] = model.ToDomain()
	}
	return assignments, nil
}

// ListAssignedEmployeeIDs returns every employee with an assignment in the period
func (r *GormCategoryRepository) ListAssignedEmployeeIDs(ctx context.Context, periodID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.CategoryAssignmentModel{}).
		Where("period_id = ?", periodID).
		Order("employee_id asc").
		Pluck("employee_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
