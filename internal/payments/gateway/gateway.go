package gateway

import (
	"context"
	"time"
)

type CheckoutRequest struct {
	BookingID   string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	ExpiresAt   time.Time
}

type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt time.Time
	// BookingID is the reference the session was opened for.
	BookingID string
	Paid      bool
}

// Gateway opens hosted checkout sessions with a payment provider and reports
// their state.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
}
