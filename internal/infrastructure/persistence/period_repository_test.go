package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/payroll/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB creates a gorm DB backed by a mocked SQL connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormPeriodRepository_FindByID(t *testing.T) {
	t.Run("finds existing period", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPeriodRepository(db)

		periodID := uuid.New()
		start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
		pay := time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "pay_date"}).
			AddRow(periodID, "2025-03", start, end, pay)

		mock.ExpectQuery(`SELECT \* FROM "payroll_periods" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(periodID, 1).
			WillReturnRows(rows)

		period, err := repo.FindByID(context.Background(), periodID)

		assert.NoError(t, err)
		require.NotNil(t, period)
		assert.Equal(t, periodID, period.ID)
		assert.Equal(t, "2025-03", period.Name)
		assert.Equal(t, end, period.ReferenceDate())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing period", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPeriodRepository(db)

		periodID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "payroll_periods" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(periodID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		period, err := repo.FindByID(context.Background(), periodID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, period)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
