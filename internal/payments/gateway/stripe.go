package gateway

import (
	"context"
	"fmt"
	"time"

	"ebooking/pkg/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

const productName = "Booking Payment"

type StripeGateway struct {
	client *session.Client
	log    *logger.Logger
}

// NewStripeGateway leaves the global stripe.Key untouched.
func NewStripeGateway(secretKey string, log *logger.Logger) *StripeGateway {
	return &StripeGateway{
		client: &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		log:    log.Component("stripe"),
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.BookingID),
		ExpiresAt:         stripe.Int64(req.ExpiresAt.Unix()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)

	s, err := g.client.New(params)
	if err != nil {
		g.log.Error("Failed to create checkout session", "booking_id", req.BookingID, "error", err)
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}

	g.log.Info("Checkout session created", "booking_id", req.BookingID, "session_id", s.ID)
	return toCheckoutSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.client.Get(id, params)
	if err != nil {
		g.log.Error("Failed to retrieve checkout session", "session_id", id, "error", err)
		return nil, fmt.Errorf("stripe checkout session %s: %w", id, err)
	}
	return toCheckoutSession(s), nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:        s.ID,
		URL:       s.URL,
		ExpiresAt: time.Unix(s.ExpiresAt, 0).UTC(),
		BookingID: s.ClientReferenceID,
		Paid:      s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
}
