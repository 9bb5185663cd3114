package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInsuranceRuleRepository implements insurance.RuleRepository using GORM
type GormInsuranceRuleRepository struct {
	db *gorm.DB
}

// NewGormInsuranceRuleRepository creates a new GormInsuranceRuleRepository
func NewGormInsuranceRuleRepository(db *gorm.DB) *GormInsuranceRuleRepository {
	return &GormInsuranceRuleRepository{db: db}
}

// FindActive returns every rule version effective at the reference date for
// the given types and categories. Validity is half open: a rule whose
// effective_until equals the reference date is no longer active.
func (r *GormInsuranceRuleRepository) FindActive(ctx context.Context, typeIDs, categoryIDs []uuid.UUID, ref time.Time) ([]insurance.InsuranceRule, error) {
	if len(typeIDs) == 0 || len(categoryIDs) == 0 {
		return nil, nil
	}
	var ruleModels []models.InsuranceRuleModel
	if err := r.db.WithContext(ctx).
		Where("insurance_type_id IN ? AND category_id IN ?", typeIDs, categoryIDs).
		Where("effective_from <= ?", ref).
		Where("effective_until IS NULL OR effective_until > ?", ref).
		Order("effective_from asc").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}

	rules := make([]insurance.InsuranceRule, len(ruleModels))
	for i, model := range ruleModels {
		rules[i] = model.ToDomain()
	}
	return rules, nil
}
