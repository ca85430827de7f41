package models

import "time"

// Online payment statuses
const (
	TransactionStatusCreated = "created"
	TransactionStatusPaid    = "paid"
	TransactionStatusFailed  = "failed"
)

// OnlineTransaction tracks a Razorpay order raised against a service request
type OnlineTransaction struct {
	ID               int       `json:"id"`
	ServiceRequestID int       `json:"request"`
	OrderID          string    `json:"order_id"`
	PaymentID        *string   `json:"payment_id,omitempty"`
	Amount           float64   `json:"amount"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateOrderRequest is the JSON body of POST /api/v1/payments/order
type CreateOrderRequest struct {
	Request int     `json:"request"`
	Amount  float64 `json:"amount"`
}

// VerifyPaymentRequest carries Razorpay's checkout callback fields
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}
