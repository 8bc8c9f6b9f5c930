package purchases

import "time"

// CreatePurchaseRequest is the payload for POST /purchases.
type CreatePurchaseRequest struct {
	SupplierID int64                       `json:"supplier_id" validate:"required,gt=0"`
	Tax        float64                     `json:"tax" validate:"gte=0"`
	InvoiceNo  string                      `json:"invoice_number" validate:"max=100"`
	Notes      string                      `json:"notes" validate:"max=500"`
	Lines      []CreatePurchaseLineRequest `json:"products" validate:"required,min=1,dive"`
}

// CreatePurchaseLineRequest is one received line item.
type CreatePurchaseLineRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"required,gt=0"`
}

// ListPurchasesRequest filters the paginated purchase listing.
type ListPurchasesRequest struct {
	CompanyID  int64
	SupplierID int64
	Status     string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}
