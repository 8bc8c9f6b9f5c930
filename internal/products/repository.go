package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vectra-pos/vectra-pos/internal/shared"
)

// Repository abstracts catalog persistence.
type Repository interface {
	Insert(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, p Product) error
	SetStatus(ctx context.Context, companyID, productID int64, status ProductStatus) error
	Get(ctx context.Context, companyID, productID int64) (*Product, error)
	List(ctx context.Context, req ListProductsRequest) ([]Product, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO products (company_id, sku, name, description, category, purchase_price, sale_price, stock, min_stock, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW()) RETURNING id`,
		p.CompanyID, p.SKU, p.Name, p.Description, p.Category, p.PurchasePrice, p.SalePrice, p.Stock, p.MinStock, string(StatusActive)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: sku %q ya existe", shared.ErrDuplicate, p.SKU)
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products
SET name=$1, description=$2, category=$3, purchase_price=$4, sale_price=$5, min_stock=$6, updated_at=NOW()
WHERE id=$7 AND company_id=$8`,
		p.Name, p.Description, p.Category, p.PurchasePrice, p.SalePrice, p.MinStock, p.ID, p.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, companyID, productID int64, status ProductStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET status=$1, updated_at=NOW() WHERE id=$2 AND company_id=$3`,
		string(status), productID, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, companyID, productID int64) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, sku, name, COALESCE(description,''), COALESCE(category,''), purchase_price, sale_price, stock, min_stock, status, created_at, updated_at
FROM products
WHERE id=$1 AND company_id=$2`, productID, companyID).
		Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.PurchasePrice, &p.SalePrice, &p.Stock, &p.MinStock, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, req.Category)
		argPos++
	}
	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.LowStock {
		conditions = append(conditions, "stock <= min_stock")
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT id, company_id, sku, name, COALESCE(description,''), COALESCE(category,''), purchase_price, sale_price, stock, min_stock, status, created_at, updated_at
FROM products
%s
ORDER BY name ASC, id ASC
LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.PurchasePrice, &p.SalePrice, &p.Stock, &p.MinStock, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}
