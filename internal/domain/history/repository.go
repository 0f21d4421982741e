package history

import (
	"context"
	"time"
)

// Repository persists historical data points. Records are append-only; there
// is no update or delete path.
type Repository interface {
	Save(ctx context.Context, r *Record) error

	// FindByEntity returns the entity's records of the given data type inside
	// [from, to], ordered by recorded time ascending.
	FindByEntity(ctx context.Context, entityID, dataType string, from, to time.Time) ([]*Record, error)
}
