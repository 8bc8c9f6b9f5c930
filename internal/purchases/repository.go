package purchases

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

// Repository abstracts purchase persistence for the service.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	GetPurchase(ctx context.Context, companyID, purchaseID int64) (*Purchase, error)
	List(ctx context.Context, req ListPurchasesRequest) ([]PurchaseSummary, int, error)
}

// Tx exposes the transactional operations of a purchase along with the stock
// surface, so line movements commit atomically with the header.
type Tx interface {
	InsertPurchaseHeader(ctx context.Context, p Purchase) (int64, error)
	InsertPurchaseLine(ctx context.Context, line PurchaseLine) error
	UpdatePurchaseTotals(ctx context.Context, purchaseID int64, subtotal, total float64) error
	PurchaseForUpdate(ctx context.Context, companyID, purchaseID int64) (*Purchase, error)
	PurchaseLines(ctx context.Context, purchaseID int64) ([]PurchaseLine, error)
	MarkCancelled(ctx context.Context, purchaseID int64) error
	SupplierExists(ctx context.Context, companyID, supplierID int64) (bool, error)
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
		return fn(ctx, &purchaseTx{tx: tx, stock: inventory.NewStockTx(tx)})
	})
}

type purchaseTx struct {
	tx    pgx.Tx
	stock inventory.StockTx
}

func (t *purchaseTx) Stock() inventory.StockTx {
	return t.stock
}

func (t *purchaseTx) InsertPurchaseHeader(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchases (company_id, supplier_id, user_id, subtotal, tax, total_amount, invoice_number, status, notes, created_at)
VALUES ($1,$2,$3,0,$4,0,$5,$6,$7,NOW()) RETURNING id`,
		p.CompanyID, p.SupplierID, p.UserID, p.Tax, p.InvoiceNo, string(PurchaseStatusCompleted), p.Notes).Scan(&id)
	return id, err
}

func (t *purchaseTx) InsertPurchaseLine(ctx context.Context, line PurchaseLine) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO purchase_products (purchase_id, product_id, quantity, unit_cost, subtotal)
VALUES ($1,$2,$3,$4,$5)`,
		line.PurchaseID, line.ProductID, line.Quantity, line.UnitCost, line.Subtotal)
	return err
}

func (t *purchaseTx) UpdatePurchaseTotals(ctx context.Context, purchaseID int64, subtotal, total float64) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchases SET subtotal=$1, total_amount=$2 WHERE id=$3`, subtotal, total, purchaseID)
	return err
}

func (t *purchaseTx) PurchaseForUpdate(ctx context.Context, companyID, purchaseID int64) (*Purchase, error) {
	var p Purchase
	err := t.tx.QueryRow(ctx, `SELECT id, company_id, supplier_id, user_id, subtotal, tax, total_amount, COALESCE(invoice_number,''), status, COALESCE(notes,''), created_at
FROM purchases
WHERE id=$1 AND company_id=$2
FOR UPDATE`, purchaseID, companyID).
		Scan(&p.ID, &p.CompanyID, &p.SupplierID, &p.UserID, &p.Subtotal, &p.Tax, &p.TotalAmount, &p.InvoiceNo, &p.Status, &p.Notes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *purchaseTx) PurchaseLines(ctx context.Context, purchaseID int64) ([]PurchaseLine, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, purchase_id, product_id, quantity, unit_cost, subtotal
FROM purchase_products
WHERE purchase_id=$1
ORDER BY product_id ASC`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []PurchaseLine{}
	for rows.Next() {
		var line PurchaseLine
		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.ProductID, &line.Quantity, &line.UnitCost, &line.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (t *purchaseTx) MarkCancelled(ctx context.Context, purchaseID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchases SET status=$1 WHERE id=$2`, string(PurchaseStatusCancelled), purchaseID)
	return err
}

func (t *purchaseTx) SupplierExists(ctx context.Context, companyID, supplierID int64) (bool, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM suppliers WHERE id=$1 AND company_id=$2 AND status='active' LIMIT 1`,
		supplierID, companyID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) GetPurchase(ctx context.Context, companyID, purchaseID int64) (*Purchase, error) {
	var p Purchase
	err := r.pool.QueryRow(ctx, `SELECT p.id, p.company_id, p.supplier_id, s.name, p.user_id, p.subtotal, p.tax, p.total_amount, COALESCE(p.invoice_number,''), p.status, COALESCE(p.notes,''), p.created_at
FROM purchases p
JOIN suppliers s ON p.supplier_id = s.id
WHERE p.id=$1 AND p.company_id=$2`, purchaseID, companyID).
		Scan(&p.ID, &p.CompanyID, &p.SupplierID, &p.SupplierName, &p.UserID, &p.Subtotal, &p.Tax, &p.TotalAmount, &p.InvoiceNo, &p.Status, &p.Notes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT pp.id, pp.purchase_id, pp.product_id, pr.name, pp.quantity, pp.unit_cost, pp.subtotal
FROM purchase_products pp
JOIN products pr ON pp.product_id = pr.id
WHERE pp.purchase_id=$1
ORDER BY pp.product_id ASC`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line PurchaseLine
		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.ProductID, &line.ProductName, &line.Quantity, &line.UnitCost, &line.Subtotal); err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, req ListPurchasesRequest) ([]PurchaseSummary, int, error) {
	conditions := []string{"p.company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.SupplierID > 0 {
		conditions = append(conditions, fmt.Sprintf("p.supplier_id = $%d", argPos))
		args = append(args, req.SupplierID)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("p.created_at >= $%d", argPos))
		args = append(args, *req.StartDate)
		argPos++
	}
	if req.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("p.created_at <= $%d", argPos))
		args = append(args, *req.EndDate)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM purchases p %s", whereClause), args...).Scan(&total); err != nil {
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

	query := fmt.Sprintf(`SELECT p.id, s.name, p.subtotal, p.tax, p.total_amount, COALESCE(p.invoice_number,''), p.status, p.created_at, u.name
FROM purchases p
JOIN suppliers s ON p.supplier_id = s.id
JOIN users u ON p.user_id = u.id
%s
ORDER BY p.created_at DESC, p.id DESC
LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	purchases := []PurchaseSummary{}
	for rows.Next() {
		var p PurchaseSummary
		if err := rows.Scan(&p.ID, &p.SupplierName, &p.Subtotal, &p.Tax, &p.TotalAmount, &p.InvoiceNo, &p.Status, &p.CreatedAt, &p.UserName); err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, p)
	}
	return purchases, total, rows.Err()
}
