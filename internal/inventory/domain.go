package inventory

import "time"

// MovementType enumerates the causes of a stock change.
type MovementType string

const (
	// MovementPurchase represents incoming stock from a supplier receipt.
	MovementPurchase MovementType = "purchase"
	// MovementSale represents outgoing stock from a sale (or its reversal).
	MovementSale MovementType = "sale"
	// MovementAdjustment represents a manual correction (breakage, recount).
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementAdjustment:
		return true
	}
	return false
}

// Movement is one immutable ledger entry. Rows are append-only: never updated
// or deleted once written. The invariant NewStock = PreviousStock + Quantity
// holds for every row, and NewStock equals the product's stock column at the
// moment the writing transaction commits.
type Movement struct {
	ID            int64        `json:"id"`
	CompanyID     int64        `json:"company_id"`
	ProductID     int64        `json:"product_id"`
	Type          MovementType `json:"movement_type"`
	Quantity      int64        `json:"quantity"`
	PreviousStock int64        `json:"previous_stock"`
	NewStock      int64        `json:"new_stock"`
	UserID        int64        `json:"user_id"`
	ReferenceID   *int64       `json:"reference_id,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// MovementWithUser joins the acting user's name for ledger listings.
type MovementWithUser struct {
	Movement
	UserName string `json:"user_name"`
}

// LockedProduct is the product row as seen under an exclusive row lock.
type LockedProduct struct {
	ID            int64
	CompanyID     int64
	Name          string
	SKU           string
	PurchasePrice float64
	SalePrice     float64
	Stock         int64
	MinStock      int64
	Status        string
}

// MovementInput describes one requested stock mutation.
type MovementInput struct {
	CompanyID   int64
	ProductID   int64
	Delta       int64
	Type        MovementType
	UserID      int64
	ReferenceID *int64
	Notes       string
}

// MovementResult reports the balances around a committed-to-be movement and
// whether it landed at or under the reorder threshold.
type MovementResult struct {
	MovementID    int64
	Product       LockedProduct
	PreviousStock int64
	NewStock      int64
	LowStock      bool
}

// LowStockAlert is handed to the notifier after the owning transaction commits.
type LowStockAlert struct {
	CompanyID   int64
	ProductID   int64
	ProductName string
	Stock       int64
	MinStock    int64
}
