package portfolio

import (
	"context"
)

// Repository defines the persistence operations for portfolios. Lookups that
// find no record return an AppError with ErrCodePortfolioNotFound.
type Repository interface {
	Save(ctx context.Context, p *Portfolio) error
	FindByPortfolioID(ctx context.Context, portfolioID string) (*Portfolio, error)

	// FindByClientID returns the client's portfolios ordered by update time
	// descending, newest first. offset and limit page the result.
	FindByClientID(ctx context.Context, clientID string, offset, limit int) ([]*Portfolio, error)

	Delete(ctx context.Context, portfolioID string) error
}
