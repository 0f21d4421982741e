package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecometric/esg-dashboard/internal/domain/history"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

type postgresHistoryRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewHistoryRepository(conn *postgres.Connection, log logging.Logger) history.Repository {
	return &postgresHistoryRepo{conn: conn, log: log}
}

func (r *postgresHistoryRepo) executor() queryExecutor {
	return r.conn.DB()
}

func (r *postgresHistoryRepo) Save(ctx context.Context, rec *history.Record) error {
	query := `
		INSERT INTO esg_history (
			id, entity_id, data_type, value, metrics, data_quality, recorded_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`
	var metrics interface{}
	if rec.Metrics != nil {
		data, err := json.Marshal(rec.Metrics)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal history metrics")
		}
		metrics = data
	}

	_, err := r.executor().ExecContext(ctx, query,
		rec.ID, rec.EntityID, rec.DataType, rec.Value, metrics, rec.DataQuality, rec.RecordedAt, rec.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save history record")
	}
	return nil
}

func (r *postgresHistoryRepo) FindByEntity(ctx context.Context, entityID, dataType string, from, to time.Time) ([]*history.Record, error) {
	query := `
		SELECT id, entity_id, data_type, value, metrics, data_quality, recorded_at, created_at
		FROM esg_history
		WHERE entity_id = $1 AND data_type = $2 AND recorded_at BETWEEN $3 AND $4
		ORDER BY recorded_at ASC
	`
	rows, err := r.executor().QueryContext(ctx, query, entityID, dataType, from, to)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query history records")
	}
	defer rows.Close()

	var records []*history.Record
	for rows.Next() {
		var (
			rec     history.Record
			metrics []byte
		)
		if err := rows.Scan(&rec.ID, &rec.EntityID, &rec.DataType, &rec.Value, &metrics, &rec.DataQuality, &rec.RecordedAt, &rec.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan history record")
		}
		if len(metrics) > 0 {
			if err := json.Unmarshal(metrics, &rec.Metrics); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode history metrics")
			}
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
