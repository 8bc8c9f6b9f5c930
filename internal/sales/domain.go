package sales

import "time"

// SaleStatus enumerates sale lifecycle states. A sale is created directly as
// completed (the transaction either commits everything or nothing); cancelled
// is a later, separate transition that reverses every movement.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// Sale is the header row.
type Sale struct {
	ID            int64      `json:"id"`
	CompanyID     int64      `json:"company_id"`
	CustomerID    *int64     `json:"customer_id,omitempty"`
	UserID        int64      `json:"user_id"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Discount      float64    `json:"discount"`
	TotalAmount   float64    `json:"total_amount"`
	PaymentMethod string     `json:"payment_method"`
	Status        SaleStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	Lines         []SaleLine `json:"lines,omitempty"`
}

// SaleLine snapshots unit and purchase price at the time of sale, so later
// catalog price changes never retroactively alter historical sales.
type SaleLine struct {
	ID            int64   `json:"id"`
	SaleID        int64   `json:"sale_id"`
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name,omitempty"`
	Quantity      int64   `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	PurchasePrice float64 `json:"purchase_price"`
	Subtotal      float64 `json:"subtotal"`
	Profit        float64 `json:"profit"`
}

// SaleSummary is the list row with joined names.
type SaleSummary struct {
	ID            int64      `json:"id"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Discount      float64    `json:"discount"`
	TotalAmount   float64    `json:"total_amount"`
	PaymentMethod string     `json:"payment_method"`
	Status        SaleStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UserName      string     `json:"user_name"`
	CustomerName  *string    `json:"customer_name,omitempty"`
}

// SaleResult reports the computed totals of a committed sale.
type SaleResult struct {
	SaleID      int64   `json:"sale_id"`
	Subtotal    float64 `json:"subtotal"`
	Tax         float64 `json:"tax"`
	Discount    float64 `json:"discount"`
	TotalAmount float64 `json:"total_amount"`
	TotalProfit float64 `json:"total_profit"`
}

// DailySummary aggregates today's completed sales.
type DailySummary struct {
	TotalSales   int64   `json:"total_sales"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalProfit  float64 `json:"total_profit"`
}
