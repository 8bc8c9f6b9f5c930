package products

import "time"

// ProductStatus enumerates catalog states. Deactivated products stay in the
// catalog for history but are excluded from sales and sweeps.
type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusInactive ProductStatus = "inactive"
)

// Product is one catalog row. Stock is owned by the movement ledger: catalog
// writes never touch it.
type Product struct {
	ID            int64         `json:"id"`
	CompanyID     int64         `json:"company_id"`
	SKU           string        `json:"sku"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Category      string        `json:"category,omitempty"`
	PurchasePrice float64       `json:"purchase_price"`
	SalePrice     float64       `json:"sale_price"`
	Stock         int64         `json:"stock"`
	MinStock      int64         `json:"min_stock"`
	Status        ProductStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
