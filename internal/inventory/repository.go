package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vectra-pos/vectra-pos/internal/platform/db"
	"github.com/vectra-pos/vectra-pos/internal/shared"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithStockTx runs fn inside a transaction exposing the stock surface.
func (r *Repository) WithStockTx(ctx context.Context, fn func(context.Context, StockTx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewStockTx(tx))
	})
}

// NewStockTx wraps a pgx transaction as a StockTx. Other modules embed this in
// their own transaction wrappers so sales and purchases mutate stock within
// the same transaction as their headers and lines.
func NewStockTx(tx pgx.Tx) StockTx {
	return &stockTx{tx: tx}
}

type stockTx struct {
	tx pgx.Tx
}

func (s *stockTx) ProductForUpdate(ctx context.Context, companyID, productID int64) (LockedProduct, error) {
	var p LockedProduct
	var sku *string
	err := s.tx.QueryRow(ctx, `SELECT id, company_id, name, sku, purchase_price, sale_price, stock, min_stock, status
FROM products
WHERE id=$1 AND company_id=$2
FOR UPDATE`, productID, companyID).
		Scan(&p.ID, &p.CompanyID, &p.Name, &sku, &p.PurchasePrice, &p.SalePrice, &p.Stock, &p.MinStock, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LockedProduct{}, shared.ErrNotFound
		}
		return LockedProduct{}, err
	}
	if sku != nil {
		p.SKU = *sku
	}
	return p, nil
}

func (s *stockTx) UpdateProductStock(ctx context.Context, companyID, productID, newStock int64) error {
	_, err := s.tx.Exec(ctx, `UPDATE products SET stock=$1, updated_at=NOW() WHERE id=$2 AND company_id=$3`,
		newStock, productID, companyID)
	return err
}

func (s *stockTx) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO inventory_movements (company_id, product_id, movement_type, quantity, previous_stock, new_stock, user_id, reference_id, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW()) RETURNING id`,
		m.CompanyID, m.ProductID, string(m.Type), m.Quantity, m.PreviousStock, m.NewStock, m.UserID, m.ReferenceID, nullString(m.Notes)).Scan(&id)
	return id, err
}

// ProductMovements lists the ledger for one product, newest first.
func (r *Repository) ProductMovements(ctx context.Context, companyID, productID int64, limit int) ([]MovementWithUser, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT im.id, im.company_id, im.product_id, im.movement_type, im.quantity, im.previous_stock, im.new_stock, im.user_id, im.reference_id, im.notes, im.created_at, u.name
FROM inventory_movements im
JOIN users u ON im.user_id = u.id
WHERE im.product_id=$1 AND im.company_id=$2
ORDER BY im.created_at DESC, im.id DESC
LIMIT $3`, productID, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []MovementWithUser{}
	for rows.Next() {
		var m MovementWithUser
		var notes *string
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.ProductID, &m.Type, &m.Quantity, &m.PreviousStock, &m.NewStock, &m.UserID, &m.ReferenceID, &notes, &m.CreatedAt, &m.UserName); err != nil {
			return nil, err
		}
		if notes != nil {
			m.Notes = *notes
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
