package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecometric/esg-dashboard/internal/domain/history"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
)

func newHistoryRepo(t *testing.T) (history.Repository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := postgres.NewConnectionWithDB(db, logging.NewNopLogger())
	return NewHistoryRepository(conn, logging.NewNopLogger()), mock, db
}

func TestHistoryRepo_Save(t *testing.T) {
	repo, mock, db := newHistoryRepo(t)
	defer db.Close()

	rec, err := history.NewRecord("ACME-01", history.DataTypeESGRating, 87.5)
	require.NoError(t, err)
	rec.Metrics = map[string]interface{}{"grade": "AA"}

	mock.ExpectExec(`INSERT INTO esg_history`).
		WithArgs(rec.ID, "ACME-01", history.DataTypeESGRating, 87.5,
			sqlmock.AnyArg(), history.QualityReported, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Save(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepo_FindByEntity(t *testing.T) {
	repo, mock, db := newHistoryRepo(t)
	defer db.Close()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "entity_id", "data_type", "value", "metrics", "data_quality", "recorded_at", "created_at"}

	mock.ExpectQuery(`SELECT (.+) FROM esg_history\s+WHERE entity_id = \$1 AND data_type = \$2`).
		WithArgs("ACME-01", history.DataTypeESGRating, from, to).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("h1", "ACME-01", history.DataTypeESGRating, 80.0, []byte(`{"grade":"AA"}`), history.QualityVerified, from.AddDate(0, 1, 0), from).
			AddRow("h2", "ACME-01", history.DataTypeESGRating, 85.0, nil, history.QualityReported, from.AddDate(0, 3, 0), from))

	records, err := repo.FindByEntity(context.Background(), "ACME-01", history.DataTypeESGRating, from, to)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 80.0, records[0].Value)
	assert.Equal(t, "AA", records[0].Metrics["grade"])
	assert.Nil(t, records[1].Metrics)
	assert.NoError(t, mock.ExpectationsWereMet())
}
