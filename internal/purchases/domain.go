package purchases

import "time"

// PurchaseStatus enumerates purchase lifecycle states.
type PurchaseStatus string

const (
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// Purchase is the header row of a supplier receipt.
type Purchase struct {
	ID           int64          `json:"id"`
	CompanyID    int64          `json:"company_id"`
	SupplierID   int64          `json:"supplier_id"`
	SupplierName string         `json:"supplier_name,omitempty"`
	UserID       int64          `json:"user_id"`
	Subtotal     float64        `json:"subtotal"`
	Tax          float64        `json:"tax"`
	TotalAmount  float64        `json:"total_amount"`
	InvoiceNo    string         `json:"invoice_number,omitempty"`
	Status       PurchaseStatus `json:"status"`
	Notes        string         `json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	Lines        []PurchaseLine `json:"lines,omitempty"`
}

// PurchaseLine snapshots the unit cost at receipt time.
type PurchaseLine struct {
	ID          int64   `json:"id"`
	PurchaseID  int64   `json:"purchase_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int64   `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	Subtotal    float64 `json:"subtotal"`
}

// PurchaseSummary is the list row with the supplier joined in.
type PurchaseSummary struct {
	ID           int64          `json:"id"`
	SupplierName string         `json:"supplier_name"`
	Subtotal     float64        `json:"subtotal"`
	Tax          float64        `json:"tax"`
	TotalAmount  float64        `json:"total_amount"`
	InvoiceNo    string         `json:"invoice_number,omitempty"`
	Status       PurchaseStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UserName     string         `json:"user_name"`
}

// PurchaseResult reports the committed totals.
type PurchaseResult struct {
	PurchaseID  int64   `json:"purchase_id"`
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	TotalAmount float64 `json:"total_amount"`
}
