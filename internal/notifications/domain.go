package notifications

import "time"

// NotificationType categorizes notifications.
type NotificationType string

const (
	TypeLowStock NotificationType = "low_stock"
	TypeSystem   NotificationType = "system"
)

// Notification is one persisted notification row. A nil UserID marks a
// company-wide notification visible to every user of the tenant.
type Notification struct {
	ID          int64            `json:"id"`
	CompanyID   int64            `json:"company_id"`
	UserID      *int64           `json:"user_id,omitempty"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	ReferenceID *int64           `json:"reference_id,omitempty"`
	AlertKey    string           `json:"-"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// LowStockProduct is one active product at or under its reorder threshold, as
// found by the periodic sweep.
type LowStockProduct struct {
	CompanyID int64
	ProductID int64
	Name      string
	Stock     int64
	MinStock  int64
}
