package inventory

// AdjustRequest is the payload for a manual stock correction. Quantity is a
// signed delta: positive adds stock, negative removes it.
type AdjustRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required"`
	Notes     string `json:"notes" validate:"max=500"`
}

// ReceiptRequest is the payload for an ad hoc supplier receipt.
type ReceiptRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Notes     string `json:"notes" validate:"max=500"`
}
