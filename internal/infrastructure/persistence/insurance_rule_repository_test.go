package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInsuranceRuleRepository_FindActive(t *testing.T) {
	ref := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("returns rules effective at reference date", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInsuranceRuleRepository(db)

		typeID := uuid.New()
		categoryID := uuid.New()
		ruleID := uuid.New()
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{
			"id", "insurance_type_id", "category_id", "applicable",
			"employee_rate", "employer_rate", "base_floor", "base_ceiling",
			"effective_from", "effective_until",
		}).AddRow(
			ruleID, typeID, categoryID, true,
			decimal.RequireFromString("0.08"), decimal.RequireFromString("0.16"),
			decimal.RequireFromString("3000"), nil,
			from, nil,
		)

		mock.ExpectQuery(`SELECT \* FROM "insurance_rules" WHERE \(insurance_type_id IN \(\$1\) AND category_id IN \(\$2\)\) AND effective_from <= \$3 AND \(effective_until IS NULL OR effective_until > \$4\) ORDER BY effective_from asc`).
			WithArgs(typeID, categoryID, ref, ref).
			WillReturnRows(rows)

		rules, err := repo.FindActive(context.Background(), []uuid.UUID{typeID}, []uuid.UUID{categoryID}, ref)

		assert.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, ruleID, rules[0].ID)
		assert.True(t, rules[0].Applicable)
		assert.Nil(t, rules[0].BaseCeiling)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short-circuits on empty inputs", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInsuranceRuleRepository(db)

		rules, err := repo.FindActive(context.Background(), nil, []uuid.UUID{uuid.New()}, ref)

		assert.NoError(t, err)
		assert.Empty(t, rules)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
