package products

// CreateProductRequest is the payload for POST /products.
type CreateProductRequest struct {
	SKU           string  `json:"sku" validate:"required,max=50"`
	Name          string  `json:"name" validate:"required,max=150"`
	Description   string  `json:"description" validate:"max=500"`
	Category      string  `json:"category" validate:"max=100"`
	PurchasePrice float64 `json:"purchase_price" validate:"gte=0"`
	SalePrice     float64 `json:"sale_price" validate:"gte=0"`
	InitialStock  int64   `json:"initial_stock" validate:"gte=0"`
	MinStock      int64   `json:"min_stock" validate:"gte=0"`
}

// UpdateProductRequest updates catalog fields. Stock is deliberately absent:
// stock only changes through movements.
type UpdateProductRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=150"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Category      *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	PurchasePrice *float64 `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice     *float64 `json:"sale_price,omitempty" validate:"omitempty,gte=0"`
	MinStock      *int64   `json:"min_stock,omitempty" validate:"omitempty,gte=0"`
}

// ListProductsRequest filters the catalog listing.
type ListProductsRequest struct {
	CompanyID int64
	Search    string
	Category  string
	Status    string
	LowStock  bool
	Page      int
	Limit     int
}
