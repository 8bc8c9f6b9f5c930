package usage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository abstracts usage counter persistence.
type Repository interface {
	Increment(ctx context.Context, companyID int64, resource ResourceType, period time.Time) (int64, error)
	Decrement(ctx context.Context, companyID int64, resource ResourceType, period time.Time) (int64, error)
	List(ctx context.Context, companyID int64, period time.Time) ([]Record, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Increment upserts the counter row and adds one. The ON CONFLICT arm makes
// concurrent first-of-period increments safe without an advisory lock.
func (r *repository) Increment(ctx context.Context, companyID int64, resource ResourceType, period time.Time) (int64, error) {
	var quantity int64
	err := r.pool.QueryRow(ctx, `INSERT INTO usage_tracking (company_id, resource_type, usage_period, quantity, updated_at)
VALUES ($1, $2, $3, 1, NOW())
ON CONFLICT (company_id, resource_type, usage_period)
DO UPDATE SET quantity = usage_tracking.quantity + 1, updated_at = NOW()
RETURNING quantity`, companyID, string(resource), period).Scan(&quantity)
	return quantity, err
}

// Decrement floors at zero. A decrement in a period with no row yet writes a
// zero row rather than going negative.
func (r *repository) Decrement(ctx context.Context, companyID int64, resource ResourceType, period time.Time) (int64, error) {
	var quantity int64
	err := r.pool.QueryRow(ctx, `INSERT INTO usage_tracking (company_id, resource_type, usage_period, quantity, updated_at)
VALUES ($1, $2, $3, 0, NOW())
ON CONFLICT (company_id, resource_type, usage_period)
DO UPDATE SET quantity = GREATEST(usage_tracking.quantity - 1, 0), updated_at = NOW()
RETURNING quantity`, companyID, string(resource), period).Scan(&quantity)
	return quantity, err
}

func (r *repository) List(ctx context.Context, companyID int64, period time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, company_id, resource_type, usage_period, quantity, updated_at
FROM usage_tracking
WHERE company_id=$1 AND usage_period=$2
ORDER BY resource_type ASC`, companyID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.CompanyID, &rec.ResourceType, &rec.UsagePeriod, &rec.Quantity, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
