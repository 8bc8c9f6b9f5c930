package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vectra-pos/vectra-pos/internal/inventory"
	"github.com/vectra-pos/vectra-pos/internal/platform/db"
	"github.com/vectra-pos/vectra-pos/internal/shared"
)

// Repository abstracts sale persistence for the service.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	GetSale(ctx context.Context, companyID, saleID int64) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest) ([]SaleSummary, int, error)
	DailySummary(ctx context.Context, companyID int64) (DailySummary, error)
	CustomerSales(ctx context.Context, companyID, customerID int64) ([]SaleSummary, error)
}

// Tx exposes the transactional operations of a sale, including the stock
// surface so line movements commit atomically with the header.
type Tx interface {
	InsertSaleHeader(ctx context.Context, s Sale) (int64, error)
	InsertSaleLine(ctx context.Context, line SaleLine) error
	UpdateSaleTotals(ctx context.Context, saleID int64, subtotal, total float64) error
	SaleForUpdate(ctx context.Context, companyID, saleID int64) (*Sale, error)
	SaleLines(ctx context.Context, saleID int64) ([]SaleLine, error)
	MarkCancelled(ctx context.Context, saleID int64) error
	CustomerExists(ctx context.Context, companyID, customerID int64) (bool, error)
	Stock() inventory.StockTx
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &saleTx{tx: tx, stock: inventory.NewStockTx(tx)})
	})
}

type saleTx struct {
	tx    pgx.Tx
	stock inventory.StockTx
}

func (t *saleTx) Stock() inventory.StockTx {
	return t.stock
}

func (t *saleTx) InsertSaleHeader(ctx context.Context, s Sale) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO sales (company_id, customer_id, user_id, subtotal, tax, discount, total_amount, payment_method, status, created_at)
VALUES ($1,$2,$3,0,$4,$5,0,$6,$7,NOW()) RETURNING id`,
		s.CompanyID, s.CustomerID, s.UserID, s.Tax, s.Discount, s.PaymentMethod, string(SaleStatusCompleted)).Scan(&id)
	return id, err
}

func (t *saleTx) InsertSaleLine(ctx context.Context, line SaleLine) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO sale_products (sale_id, product_id, quantity, unit_price, purchase_price, subtotal, profit)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		line.SaleID, line.ProductID, line.Quantity, line.UnitPrice, line.PurchasePrice, line.Subtotal, line.Profit)
	return err
}

func (t *saleTx) UpdateSaleTotals(ctx context.Context, saleID int64, subtotal, total float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE sales SET subtotal=$1, total_amount=$2 WHERE id=$3`, subtotal, total, saleID)
	return err
}

func (t *saleTx) SaleForUpdate(ctx context.Context, companyID, saleID int64) (*Sale, error) {
	var s Sale
	err := t.tx.QueryRow(ctx, `SELECT id, company_id, customer_id, user_id, subtotal, tax, discount, total_amount, payment_method, status, created_at
FROM sales
WHERE id=$1 AND company_id=$2
FOR UPDATE`, saleID, companyID).
		Scan(&s.ID, &s.CompanyID, &s.CustomerID, &s.UserID, &s.Subtotal, &s.Tax, &s.Discount, &s.TotalAmount, &s.PaymentMethod, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (t *saleTx) SaleLines(ctx context.Context, saleID int64) ([]SaleLine, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, sale_id, product_id, quantity, unit_price, purchase_price, subtotal, profit
FROM sale_products
WHERE sale_id=$1
ORDER BY product_id ASC`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSaleLines(rows)
}

func (t *saleTx) MarkCancelled(ctx context.Context, saleID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE sales SET status=$1 WHERE id=$2`, string(SaleStatusCancelled), saleID)
	return err
}

func (t *saleTx) CustomerExists(ctx context.Context, companyID, customerID int64) (bool, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM customers WHERE id=$1 AND company_id=$2 AND status='active' LIMIT 1`,
		customerID, companyID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) GetSale(ctx context.Context, companyID, saleID int64) (*Sale, error) {
	var s Sale
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, customer_id, user_id, subtotal, tax, discount, total_amount, payment_method, status, created_at
FROM sales
WHERE id=$1 AND company_id=$2`, saleID, companyID).
		Scan(&s.ID, &s.CompanyID, &s.CustomerID, &s.UserID, &s.Subtotal, &s.Tax, &s.Discount, &s.TotalAmount, &s.PaymentMethod, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT sp.id, sp.sale_id, sp.product_id, p.name, sp.quantity, sp.unit_price, sp.purchase_price, sp.subtotal, sp.profit
FROM sale_products sp
JOIN products p ON sp.product_id = p.id
WHERE sp.sale_id=$1
ORDER BY sp.product_id ASC`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPrice, &line.PurchasePrice, &line.Subtotal, &line.Profit); err != nil {
			return nil, err
		}
		s.Lines = append(s.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) List(ctx context.Context, req ListSalesRequest) ([]SaleSummary, int, error) {
	conditions := []string{"s.company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.created_at >= $%d", argPos))
		args = append(args, *req.StartDate)
		argPos++
	}
	if req.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.created_at <= $%d", argPos))
		args = append(args, *req.EndDate)
		argPos++
	}
	if req.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("s.payment_method = $%d", argPos))
		args = append(args, req.PaymentMethod)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM sales s %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT s.id, s.subtotal, s.tax, s.discount, s.total_amount, s.payment_method, s.status, s.created_at,
       u.name AS user_name, c.name AS customer_name
FROM sales s
JOIN users u ON s.user_id = u.id
LEFT JOIN customers c ON s.customer_id = c.id AND c.company_id = s.company_id
%s
ORDER BY s.created_at DESC, s.id DESC
LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sales := []SaleSummary{}
	for rows.Next() {
		var s SaleSummary
		if err := rows.Scan(&s.ID, &s.Subtotal, &s.Tax, &s.Discount, &s.TotalAmount, &s.PaymentMethod, &s.Status, &s.CreatedAt, &s.UserName, &s.CustomerName); err != nil {
			return nil, 0, err
		}
		sales = append(sales, s)
	}
	return sales, total, rows.Err()
}

func (r *repository) DailySummary(ctx context.Context, companyID int64) (DailySummary, error) {
	var s DailySummary
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*),
       COALESCE(SUM(total_amount), 0),
       COALESCE(SUM((SELECT SUM(profit) FROM sale_products sp WHERE sp.sale_id = s.id)), 0)
FROM sales s
WHERE created_at::date = CURRENT_DATE
AND status = 'completed'
AND company_id = $1`, companyID).
		Scan(&s.TotalSales, &s.TotalRevenue, &s.TotalProfit)
	return s, err
}

func (r *repository) CustomerSales(ctx context.Context, companyID, customerID int64) ([]SaleSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.subtotal, s.tax, s.discount, s.total_amount, s.payment_method, s.status, s.created_at, u.name
FROM sales s
JOIN users u ON s.user_id = u.id
WHERE s.company_id=$1 AND s.customer_id=$2 AND s.status='completed'
ORDER BY s.created_at DESC`, companyID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sales := []SaleSummary{}
	for rows.Next() {
		var s SaleSummary
		if err := rows.Scan(&s.ID, &s.Subtotal, &s.Tax, &s.Discount, &s.TotalAmount, &s.PaymentMethod, &s.Status, &s.CreatedAt, &s.UserName); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func scanSaleLines(rows pgx.Rows) ([]SaleLine, error) {
	lines := []SaleLine{}
	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.PurchasePrice, &line.Subtotal, &line.Profit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
