package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glaucoma-risk-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func adviceRows(t *testing.T) *pgxmock.Rows {
	t.Helper()
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "risk_level", "min_score", "max_score", "advice", "updated_at"}).
		AddRow(int64(1), "Low", 0, 2, "See an optometrist every two years", now).
		AddRow(int64(2), "moderate risk", 3, 5, "", now).
		AddRow(int64(3), "High", 6, 100, "See an ophthalmologist promptly", now)
}

func TestAdviceRepositoryList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdviceRepository(mock, testLogger(), false)

	mock.ExpectQuery(`FROM risk_assessment_advice\s+ORDER BY min_score ASC`).
		WillReturnRows(adviceRows(t))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Low", records[0].RiskLevel)
	assert.Equal(t, 0, records[0].MinScore)
	assert.Equal(t, 2, records[0].MaxScore)
	assert.Equal(t, "moderate risk", records[1].RiskLevel)
	assert.Empty(t, records[1].Advice)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdviceRepositoryListStoredProcedure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdviceRepository(mock, testLogger(), true)

	mock.ExpectQuery(`FROM get_risk_assessment_advice\(\)`).
		WillReturnRows(adviceRows(t))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdviceRepositoryListClassifiesServerErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdviceRepository(mock, testLogger(), false)

	mock.ExpectQuery(`FROM risk_assessment_advice`).
		WillReturnError(&pgconn.PgError{Code: "57P01", Message: "terminating connection"})

	_, err = repo.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.StoreErrServer, domain.ClassifyStoreError(err))
}

func TestAdviceRepositoryUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdviceRepository(mock, testLogger(), false)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO risk_assessment_advice`).
		WithArgs("High", 6, 100, "X").
		WillReturnRows(pgxmock.NewRows([]string{"id", "risk_level", "min_score", "max_score", "advice", "updated_at"}).
			AddRow(int64(7), "High", 6, 100, "X", now))

	persisted, err := repo.Upsert(context.Background(), domain.AdviceRecord{
		RiskLevel: "High",
		MinScore:  6,
		MaxScore:  100,
		Advice:    "X",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), persisted.ID)
	assert.Equal(t, "High", persisted.RiskLevel)
	assert.Equal(t, "X", persisted.Advice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdviceRepositoryUpsertStoredProcedure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdviceRepository(mock, testLogger(), true)

	now := time.Now()
	mock.ExpectQuery(`FROM update_risk_assessment_advice\(\$1, \$2, \$3, \$4\)`).
		WithArgs("Low", 0, 2, "Y").
		WillReturnRows(pgxmock.NewRows([]string{"id", "risk_level", "min_score", "max_score", "advice", "updated_at"}).
			AddRow(int64(1), "Low", 0, 2, "Y", now))

	persisted, err := repo.Upsert(context.Background(), domain.AdviceRecord{
		RiskLevel: "Low",
		MinScore:  0,
		MaxScore:  2,
		Advice:    "Y",
	})
	require.NoError(t, err)
	assert.Equal(t, "Low", persisted.RiskLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdviceRepositoryUpsertClassifiesAuthErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdviceRepository(mock, testLogger(), false)

	mock.ExpectQuery(`INSERT INTO risk_assessment_advice`).
		WithArgs("Low", 0, 2, "").
		WillReturnError(&pgconn.PgError{Code: "28P01", Message: "password authentication failed"})

	_, err = repo.Upsert(context.Background(), domain.AdviceRecord{RiskLevel: "Low", MinScore: 0, MaxScore: 2})
	require.Error(t, err)
	assert.Equal(t, domain.StoreErrAuth, domain.ClassifyStoreError(err))
}
