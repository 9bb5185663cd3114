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

// GormPeriodRepository implements insurance.PeriodRepository using GORM
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewGormPeriodRepository creates a new GormPeriodRepository
func NewGormPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

// FindByID finds a payroll period by its ID
func (r *GormPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*insurance.PayrollPeriod, error) {
	var model models.PayrollPeriodModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
