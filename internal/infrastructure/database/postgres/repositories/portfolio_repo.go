package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ecometric/esg-dashboard/internal/domain/portfolio"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/database/postgres"
	"github.com/ecometric/esg-dashboard/internal/infrastructure/monitoring/logging"
	"github.com/ecometric/esg-dashboard/pkg/errors"
)

const portfolioColumns = `id, portfolio_id, name, client_id, client_name, items, aggregate_scores, created_at, updated_at`

type postgresPortfolioRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

func NewPortfolioRepository(conn *postgres.Connection, log logging.Logger) portfolio.Repository {
	return &postgresPortfolioRepo{conn: conn, log: log}
}

func (r *postgresPortfolioRepo) executor() queryExecutor {
	return r.conn.DB()
}

func (r *postgresPortfolioRepo) Save(ctx context.Context, p *portfolio.Portfolio) error {
	query := `
		INSERT INTO portfolios (
			id, portfolio_id, name, client_id, client_name, items, aggregate_scores, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (portfolio_id) DO UPDATE SET
			name = EXCLUDED.name,
			client_id = EXCLUDED.client_id,
			client_name = EXCLUDED.client_name,
			items = EXCLUDED.items,
			aggregate_scores = EXCLUDED.aggregate_scores,
			updated_at = EXCLUDED.updated_at
	`
	items, err := json.Marshal(p.Items)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal portfolio items")
	}
	var aggregate interface{}
	if p.Aggregate != nil {
		aggregate, err = json.Marshal(p.Aggregate)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal aggregate scores")
		}
	}

	_, err = r.executor().ExecContext(ctx, query,
		p.ID, p.PortfolioID, p.Name, p.ClientID, p.ClientName, items, aggregate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save portfolio")
	}
	return nil
}

func (r *postgresPortfolioRepo) FindByPortfolioID(ctx context.Context, portfolioID string) (*portfolio.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE portfolio_id = $1`
	row := r.executor().QueryRowContext(ctx, query, portfolioID)
	p, err := scanPortfolio(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodePortfolioNotFound, "portfolio not found").WithDetail(portfolioID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query portfolio")
	}
	return p, nil
}

func (r *postgresPortfolioRepo) FindByClientID(ctx context.Context, clientID string, offset, limit int) ([]*portfolio.Portfolio, error) {
	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolios
		WHERE client_id = $1
		ORDER BY updated_at DESC, portfolio_id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.executor().QueryContext(ctx, query, clientID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query portfolios by client")
	}
	defer rows.Close()

	var portfolios []*portfolio.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan portfolio")
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

func (r *postgresPortfolioRepo) Delete(ctx context.Context, portfolioID string) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM portfolios WHERE portfolio_id = $1`, portfolioID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete portfolio")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodePortfolioNotFound, "portfolio not found").WithDetail(portfolioID)
	}
	return nil
}

func scanPortfolio(s scanner) (*portfolio.Portfolio, error) {
	var (
		p          portfolio.Portfolio
		clientName sql.NullString
		items      []byte
		aggregate  []byte
	)
	if err := s.Scan(&p.ID, &p.PortfolioID, &p.Name, &p.ClientID, &clientName, &items, &aggregate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ClientName = clientName.String
	if len(items) > 0 {
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, err
		}
	}
	if len(aggregate) > 0 {
		if err := json.Unmarshal(aggregate, &p.Aggregate); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
