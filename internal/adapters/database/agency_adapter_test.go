package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
	"github.com/hajjtrust/agency-assistant/internal/infrastructure/clients/postgres"
	apperrors "github.com/hajjtrust/agency-assistant/pkg/errors"
)

func setupMockAdapter(t *testing.T) (*AgencyAdapter, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "postgres")
	adapter := NewAgencyAdapter(postgres.NewClientFromDB(db), nil).(*AgencyAdapter)
	return adapter, mock
}

func TestAgencyAdapter_ExecuteSelect(t *testing.T) {
	t.Run("returns ordered rows and columns", func(t *testing.T) {
		adapter, mock := setupMockAdapter(t)

		mock.ExpectQuery(`SELECT hajj_company_en, city FROM agencies`).
			WillReturnRows(sqlmock.NewRows([]string{"hajj_company_en", "city"}).
				AddRow("Al Safa Travel", "Makkah").
				AddRow("Noor Hajj Services", "Jeddah"))

		result, err := adapter.ExecuteSelect(context.Background(),
			"SELECT hajj_company_en, city FROM agencies WHERE is_authorized = 'Yes' LIMIT 100")

		require.NoError(t, err)
		assert.Equal(t, []string{"hajj_company_en", "city"}, result.Columns)
		require.Equal(t, 2, result.Count())
		assert.Equal(t, "Al Safa Travel", result.Rows[0]["hajj_company_en"])
		assert.Equal(t, "Jeddah", result.Rows[1]["city"])
	})

	t.Run("converts byte slices to strings", func(t *testing.T) {
		adapter, mock := setupMockAdapter(t)

		mock.ExpectQuery(`SELECT email FROM agencies`).
			WillReturnRows(sqlmock.NewRows([]string{"email"}).
				AddRow([]byte("info@alsafa.example")))

		result, err := adapter.ExecuteSelect(context.Background(), "SELECT email FROM agencies LIMIT 50")

		require.NoError(t, err)
		assert.Equal(t, "info@alsafa.example", result.Rows[0]["email"])
	})

	t.Run("rejects non-select statements", func(t *testing.T) {
		adapter, _ := setupMockAdapter(t)

		result, err := adapter.ExecuteSelect(context.Background(), "DELETE FROM agencies")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnsafeQuery))
	})

	t.Run("returns zero rows without error", func(t *testing.T) {
		adapter, mock := setupMockAdapter(t)

		mock.ExpectQuery(`SELECT \* FROM agencies`).
			WillReturnRows(sqlmock.NewRows([]string{"hajj_company_en"}))

		result, err := adapter.ExecuteSelect(context.Background(),
			"SELECT * FROM agencies WHERE city ILIKE '%Nowhere%'")

		require.NoError(t, err)
		assert.Equal(t, 0, result.Count())
	})
}

func TestAgencyAdapter_KnownValues(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectQuery(`SELECT DISTINCT "hajj_company_en"`).
		WillReturnRows(sqlmock.NewRows([]string{"hajj_company_en"}).
			AddRow("Al Safa Travel"))
	mock.ExpectQuery(`SELECT DISTINCT "hajj_company_ar"`).
		WillReturnRows(sqlmock.NewRows([]string{"hajj_company_ar"}).
			AddRow("شركة الصفا"))
	mock.ExpectQuery(`SELECT DISTINCT "city"`).
		WillReturnRows(sqlmock.NewRows([]string{"city"}).
			AddRow("Jeddah").AddRow("Makkah"))
	mock.ExpectQuery(`SELECT DISTINCT "country"`).
		WillReturnRows(sqlmock.NewRows([]string{"country"}).
			AddRow("Saudi Arabia"))

	known, err := adapter.KnownValues(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Jeddah", "Makkah"}, known[entities.FieldCity])
	assert.Equal(t, []string{"Saudi Arabia"}, known[entities.FieldCountry])

	// Second call is served from the snapshot without further queries.
	again, err := adapter.KnownValues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, known, again)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgencyAdapter_Stats(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"total_agencies", "authorized_agencies", "countries", "cities"}).
			AddRow(312, 198, 14, 42))

	stats, err := adapter.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 312, stats.TotalAgencies)
	assert.Equal(t, 198, stats.AuthorizedAgencies)
	assert.Equal(t, 14, stats.Countries)
	assert.Equal(t, 42, stats.Cities)
}
