package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vectra-pos/vectra-pos/internal/shared"
)

// Repository abstracts notification persistence.
type Repository interface {
	Insert(ctx context.Context, n Notification) (int64, error)
	ListForUser(ctx context.Context, companyID, userID int64, unreadOnly bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, companyID, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, companyID, userID int64) (int64, error)
	LowStockProducts(ctx context.Context) ([]LowStockProduct, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Insert persists one notification row. A non-empty AlertKey is unique: a
// second insert with the same key fails with ErrDuplicate instead of writing
// another row.
func (r *repository) Insert(ctx context.Context, n Notification) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO notifications (company_id, user_id, type, title, message, reference_id, alert_key, is_read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,false,NOW()) RETURNING id`,
		n.CompanyID, n.UserID, string(n.Type), n.Title, n.Message, n.ReferenceID, nullKey(n.AlertKey)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: alerta %q ya registrada", shared.ErrDuplicate, n.AlertKey)
		}
		return 0, err
	}
	return id, nil
}

func nullKey(key string) any {
	if key == "" {
		return nil
	}
	return key
}

func (r *repository) ListForUser(ctx context.Context, companyID, userID int64, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, company_id, user_id, type, title, message, reference_id, is_read, created_at
FROM notifications
WHERE company_id=$1 AND (user_id IS NULL OR user_id=$2)`
	if unreadOnly {
		query += ` AND is_read=false`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $3`

	rows, err := r.pool.Query(ctx, query, companyID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notifications := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.ReferenceID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, companyID, userID, notificationID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read=true
WHERE id=$1 AND company_id=$2 AND (user_id IS NULL OR user_id=$3)`,
		notificationID, companyID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context, companyID, userID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read=true
WHERE company_id=$1 AND (user_id IS NULL OR user_id=$2) AND is_read=false`,
		companyID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// LowStockProducts scans every tenant for active products at or under their
// reorder threshold. Used by the periodic sweep, not the request path.
func (r *repository) LowStockProducts(ctx context.Context) ([]LowStockProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT company_id, id, name, stock, min_stock
FROM products
WHERE status='active' AND stock <= min_stock
ORDER BY company_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []LowStockProduct{}
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.CompanyID, &p.ProductID, &p.Name, &p.Stock, &p.MinStock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
