package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ecometric/esg-dashboard/internal/domain/company"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

const companyColumns = `id, company_id, name, sector, industry, current_rating, additional_metrics, created_at, updated_at`

type postgresCompanyRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewCompanyRepository(conn *postgres.Connection, log logging.Logger) company.Repository {
	return &postgresCompanyRepo{conn: conn, log: log}
}

// NewCompanyStatsRepository exposes the aggregate queries over the same
// table.
func NewCompanyStatsRepository(conn *postgres.Connection, log logging.Logger) company.StatsRepository {
	return &postgresCompanyRepo{conn: conn, log: log}
}

func (r *postgresCompanyRepo) executor() queryExecutor {
	return r.conn.DB()
}

func (r *postgresCompanyRepo) Save(ctx context.Context, c *company.Company) error {
	query := `
		INSERT INTO companies (
			id, company_id, name, sector, industry, current_rating, additional_metrics, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (company_id) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			current_rating = EXCLUDED.current_rating,
			additional_metrics = EXCLUDED.additional_metrics,
			updated_at = EXCLUDED.updated_at
	`
	rating, err := marshalNullable(c.CurrentRating)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal rating")
	}
	metrics, err := marshalNullable(c.AdditionalMetrics)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal additional metrics")
	}

	_, err = r.executor().ExecContext(ctx, query,
		c.ID, c.CompanyID, c.Name, c.Sector, c.Industry, rating, metrics, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save company")
	}
	return nil
}

func (r *postgresCompanyRepo) FindByCompanyID(ctx context.Context, companyID string) (*company.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE company_id = $1`
	row := r.executor().QueryRowContext(ctx, query, companyID)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeCompanyNotFound, "company not found").WithDetail(companyID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query company")
	}
	return c, nil
}

func (r *postgresCompanyRepo) FindByCompanyIDs(ctx context.Context, companyIDs []string) ([]*company.Company, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + companyColumns + ` FROM companies WHERE company_id = ANY($1::text[])`
	rows, err := r.executor().QueryContext(ctx, query, textArray(companyIDs))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query companies batch")
	}
	defer rows.Close()
	return collectCompanies(rows)
}

func (r *postgresCompanyRepo) FindBySector(ctx context.Context, sector string) ([]*company.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE sector = $1 ORDER BY company_id`
	rows, err := r.executor().QueryContext(ctx, query, sector)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query companies by sector")
	}
	defer rows.Close()
	return collectCompanies(rows)
}

func (r *postgresCompanyRepo) FindTopByScore(ctx context.Context, limit int) ([]*company.Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE current_rating->>'overall_score' IS NOT NULL
		ORDER BY (current_rating->>'overall_score')::double precision DESC, company_id ASC
		LIMIT $1
	`
	rows, err := r.executor().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query top companies")
	}
	defer rows.Close()
	return collectCompanies(rows)
}

func (r *postgresCompanyRepo) Delete(ctx context.Context, companyID string) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM companies WHERE company_id = $1`, companyID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete company")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeCompanyNotFound, "company not found").WithDetail(companyID)
	}
	return nil
}

func (r *postgresCompanyRepo) SectorStats(ctx context.Context) ([]*company.SectorStats, error) {
	query := `
		SELECT
			sector,
			COALESCE(AVG((current_rating->>'overall_score')::double precision), 0),
			COALESCE(AVG((current_rating->>'environmental_score')::double precision), 0),
			COALESCE(AVG((current_rating->>'social_score')::double precision), 0),
			COALESCE(AVG((current_rating->>'governance_score')::double precision), 0),
			COUNT(*)
		FROM companies
		WHERE sector <> ''
		GROUP BY sector
		ORDER BY sector
	`
	rows, err := r.executor().QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query sector stats")
	}
	defer rows.Close()

	var stats []*company.SectorStats
	for rows.Next() {
		s := &company.SectorStats{}
		if err := rows.Scan(&s.Sector, &s.AvgOverallScore, &s.AvgEnvironmental, &s.AvgSocial, &s.AvgGovernance, &s.CompanyCount); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan sector stats")
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func collectCompanies(rows *sql.Rows) ([]*company.Company, error) {
	var companies []*company.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan company")
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func scanCompany(s scanner) (*company.Company, error) {
	var (
		c        company.Company
		sector   sql.NullString
		industry sql.NullString
		rating   []byte
		metrics  []byte
	)
	if err := s.Scan(&c.ID, &c.CompanyID, &c.Name, &sector, &industry, &rating, &metrics, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Sector = sector.String
	c.Industry = industry.String
	if len(rating) > 0 {
		if err := json.Unmarshal(rating, &c.CurrentRating); err != nil {
			return nil, err
		}
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &c.AdditionalMetrics); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// marshalNullable returns nil for nil-ish values so the column stores NULL
// instead of the JSON literal "null".
func marshalNullable(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case *company.ESGRating:
		if val == nil {
			return nil, nil
		}
	case map[string]interface{}:
		if val == nil {
			return nil, nil
		}
	case nil:
		return nil, nil
	}
	return json.Marshal(v)
}
