package persistence

import (
	"context"

	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInsuranceTypeRepository implements insurance.TypeRepository using GORM
type GormInsuranceTypeRepository struct {
	db *gorm.DB
}

// NewGormInsuranceTypeRepository creates a new GormInsuranceTypeRepository
func NewGormInsuranceTypeRepository(db *gorm.DB) *GormInsuranceTypeRepository {
	return &GormInsuranceTypeRepository{db: db}
}

// FindAll returns the full insurance type catalog
func (r *GormInsuranceTypeRepository) FindAll(ctx context.Context) ([]insurance.InsuranceType, error) {
	var typeModels []models.InsuranceTypeModel
	if err := r.db.WithContext(ctx).Order("key asc").Find(&typeModels).Error; err != nil {
		return nil, err
	}

	types := make([]insurance.InsuranceType, len(typeModels))
	for i, model := range typeModels {
		types[i] = model.ToDomain()
	}
	return types, nil
}
