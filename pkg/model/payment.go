package model

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentExpired  PaymentStatus = "EXPIRED"
	PaymentCanceled PaymentStatus = "CANCELED"
)

// Payment is one checkout attempt for a booking. The checkout session id is
// only known to the provider redirect and is never serialized to clients.
type Payment struct {
	ID          string        `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID   string        `json:"booking_id" bson:"booking_id"`
	UserID      string        `json:"user_id" bson:"user_id"`
	Status      PaymentStatus `json:"status" bson:"status"`
	SessionID   string        `json:"-" bson:"session_id"`
	SessionURL  string        `json:"session_url,omitempty" bson:"session_url"`
	AmountCents int64         `json:"amount_cents" bson:"amount_cents"`
	Currency    string        `json:"currency" bson:"currency"`
	ExpiresAt   time.Time     `json:"expires_at" bson:"expires_at"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
}

type PaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,mongodb"`
}
