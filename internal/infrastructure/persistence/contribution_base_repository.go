package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContributionBaseRepository implements insurance.BaseRepository using GORM
type GormContributionBaseRepository struct {
	db *gorm.DB
}

// NewGormContributionBaseRepository creates a new GormContributionBaseRepository
func NewGormContributionBaseRepository(db *gorm.DB) *GormContributionBaseRepository {
	return &GormContributionBaseRepository{db: db}
}

// FindByEmployee returns the declared bases for one employee in a period
func (r *GormContributionBaseRepository) FindByEmployee(ctx context.Context, employeeID, periodID uuid.UUID) ([]insurance.ContributionBase, error) {
	var baseModels []models.ContributionBaseModel
	if err := r.db.WithContext(ctx).
		Preload("InsuranceType").
		Where("employee_id = ? AND period_id = ?", employeeID, periodID).
		Find(&baseModels).Error; err != nil {
		return nil, err
	}
	return toDomainBases(baseModels), nil
}

// FindByEmployees returns the declared bases for a set of employees in a period
func (r *GormContributionBaseRepository) FindByEmployees(ctx context.Context, periodID uuid.UUID, employeeIDs []uuid.UUID) ([]insurance.ContributionBase, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	var baseModels []models.ContributionBaseModel
	if err := r.db.WithContext(ctx).
		Preload("InsuranceType").
		Where("period_id = ? AND employee_id IN ?", periodID, employeeIDs).
		Find(&baseModels).Error; err != nil {
		return nil, err
	}
	return toDomainBases(baseModels), nil
}

func toDomainBases(baseModels []models.ContributionBaseModel) []insurance.ContributionBase {
	bases := make([]insurance.ContributionBase, len(baseModels))
	for i, model := range baseModels {
		bases[i] = model.ToDomain()
	}
	return bases
}
