package sales

import "time"

// CreateSaleRequest is the payload for POST /sales.
type CreateSaleRequest struct {
	CustomerID    *int64                  `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	PaymentMethod string                  `json:"payment_method" validate:"required,max=50"`
	Discount      float64                 `json:"discount" validate:"gte=0"`
	Tax           float64                 `json:"tax" validate:"gte=0"`
	Lines         []CreateSaleLineRequest `json:"products" validate:"required,min=1,dive"`
}

// CreateSaleLineRequest is one requested line item.
type CreateSaleLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// ListSalesRequest filters the paginated sale listing.
type ListSalesRequest struct {
	CompanyID     int64
	StartDate     *time.Time
	EndDate       *time.Time
	PaymentMethod string
	Status        string
	Page          int
	Limit         int
}
