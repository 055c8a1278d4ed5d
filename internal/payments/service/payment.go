package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ebooking/internal/notifications"
	paymentserrors "ebooking/internal/payments/errors"
	"ebooking/internal/payments/gateway"
	"ebooking/internal/payments/repository"
	"ebooking/internal/payments/validator"
	"ebooking/pkg/clock"
	"ebooking/pkg/config"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

type PaymentService interface {
	CreateSession(ctx context.Context, p model.Principal, bookingID string) (*model.Payment, error)
	Success(ctx context.Context, sessionID string) (*model.Payment, error)
	Cancel(ctx context.Context, sessionID string) (*model.Booking, error)
	Renew(ctx context.Context, p model.Principal, paymentID string) (*model.Payment, error)
	ListMine(ctx context.Context, p model.Principal, limit int, offset int64) ([]*model.Payment, int64, error)
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, int64, error)
	HasPendingPayment(ctx context.Context, userID string) (bool, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// BookingStore is the part of the booking workflow payments depend on.
// Errors are AppErrors.
type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Confirm(ctx context.Context, id string) error
}

type AccommodationStore interface {
	GetByID(ctx context.Context, id string) (*model.Accommodation, error)
}

type paymentService struct {
	repo           repository.PaymentRepository
	gateway        gateway.Gateway
	bookings       BookingStore
	accommodations AccommodationStore
	notifier       notifications.Notifier
	validator      *validator.PaymentValidator
	clock          clock.Clock
	cfg            *config.Config
}

type Dependencies struct {
	Repo           repository.PaymentRepository
	Gateway        gateway.Gateway
	Bookings       BookingStore
	Accommodations AccommodationStore
	Notifier       notifications.Notifier
	Validator      *validator.PaymentValidator
	Clock          clock.Clock
}

func NewPaymentService(deps Dependencies, cfg *config.Config) PaymentService {
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop{}
	}
	if deps.Validator == nil {
		deps.Validator = validator.NewPaymentValidator()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	return &paymentService{
		repo:           deps.Repo,
		gateway:        deps.Gateway,
		bookings:       deps.Bookings,
		accommodations: deps.Accommodations,
		notifier:       deps.Notifier,
		validator:      deps.Validator,
		clock:          deps.Clock,
		cfg:            cfg,
	}
}

// Nights counts calendar days between the check-in and check-out dates. A
// same-day stay is billed as one night.
func Nights(checkIn, checkOut time.Time) int64 {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	nights := int64(out.Sub(in).Hours() / 24)
	return max(nights, 1)
}

func (s *paymentService) CreateSession(ctx context.Context, p model.Principal, bookingID string) (*model.Payment, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateRequest(&model.PaymentRequest{BookingID: bookingID}); err != nil {
		return nil, apperrors.Validation("Invalid payment request", map[string]any{"error": err.Error()})
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.NotFoundWithID("Booking", bookingID)
	}
	if booking.Status != model.BookingPending {
		return nil, apperrors.PaymentStatus(fmt.Sprintf("Booking with status %s cannot be paid", booking.Status))
	}

	acc, err := s.accommodations.GetByID(ctx, booking.AccommodationID)
	if err != nil {
		return nil, err
	}

	amount := acc.DailyRate * Nights(booking.CheckIn.UTC(), booking.CheckOut.UTC())
	checkout, err := s.gateway.CreateCheckoutSession(ctx, gateway.CheckoutRequest{
		BookingID:   booking.ID,
		AmountCents: amount,
		Currency:    s.cfg.StripeCurrency,
		SuccessURL:  s.cfg.StripeSuccessURL,
		CancelURL:   s.cfg.StripeCancelURL,
		ExpiresAt:   s.clock.Now().Add(s.cfg.PaymentSessionTTL),
	})
	if err != nil {
		return nil, apperrors.Unavailable("Payment provider").WithDetail("cause", err.Error())
	}

	payment := &model.Payment{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		Status:      model.PaymentPending,
		SessionID:   checkout.ID,
		SessionURL:  checkout.URL,
		AmountCents: amount,
		Currency:    s.cfg.StripeCurrency,
		ExpiresAt:   checkout.ExpiresAt,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		s.cfg.Log.Error("Failed to store payment", "booking_id", booking.ID, "session_id", checkout.ID, "error", err)
		return nil, apperrors.Internal("Failed to create payment", err)
	}

	s.cfg.Log.Info("Payment session created",
		"id", payment.ID,
		"booking_id", booking.ID,
		"amount_cents", amount,
		"expires_at", payment.ExpiresAt,
	)
	return payment, nil
}

// Success settles the payment of a completed checkout and confirms its
// booking. The provider must report the session as paid for the payment's
// booking. Repeated calls for a paid session return the payment unchanged.
func (s *paymentService) Success(ctx context.Context, sessionID string) (*model.Payment, error) {
	payment, err := s.findBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if payment.Status == model.PaymentPaid {
		return payment, nil
	}
	if payment.Status != model.PaymentPending {
		return nil, apperrors.PaymentStatus(fmt.Sprintf("Payment with status %s cannot be completed", payment.Status))
	}

	checkout, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Unavailable("Payment provider").WithDetail("cause", err.Error())
	}
	if checkout.BookingID != payment.BookingID {
		s.cfg.Log.Warn("Checkout session does not belong to the payment's booking",
			"id", payment.ID,
			"booking_id", payment.BookingID,
			"session_booking_id", checkout.BookingID,
		)
		return nil, apperrors.PaymentStatus("Checkout session does not match the booking")
	}
	if !checkout.Paid {
		return nil, apperrors.PaymentStatus("Payment has not been completed yet")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.UpdateStatus(sessCtx, payment.ID, model.PaymentPaid); err != nil {
			return s.translateRepoError(err, payment.ID, "Failed to update payment")
		}
		return s.bookings.Confirm(sessCtx, payment.BookingID)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to complete payment", "id", payment.ID, "session_id", sessionID, "error", err)
		return nil, err
	}
	payment.Status = model.PaymentPaid

	s.cfg.Log.Info("Payment completed", "id", payment.ID, "booking_id", payment.BookingID)
	s.notifier.Notify(ctx, notifications.PaymentSucceeded(s.clock.Now(), payment))
	return payment, nil
}

// Cancel returns the booking of an abandoned checkout so the client can
// offer to pay again.
func (s *paymentService) Cancel(ctx context.Context, sessionID string) (*model.Booking, error) {
	payment, err := s.findBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.bookings.FindByID(ctx, payment.BookingID)
}

func (s *paymentService) Renew(ctx context.Context, p model.Principal, paymentID string) (*model.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, s.translateRepoError(err, paymentID, "Failed to retrieve payment")
	}
	if payment.UserID != p.UserID && !p.IsAdmin() {
		return nil, apperrors.NotFoundWithID("Payment", paymentID)
	}
	if payment.Status != model.PaymentExpired {
		return nil, apperrors.PaymentStatus("Payment is not expired.")
	}
	return s.CreateSession(ctx, p, payment.BookingID)
}

func (s *paymentService) ListMine(ctx context.Context, p model.Principal, limit int, offset int64) ([]*model.Payment, int64, error) {
	return s.list(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.CountByUser(ctx, p.UserID) },
		func(ctx context.Context, limit int, offset int64) ([]*model.Payment, error) {
			return s.repo.FindByUser(ctx, p.UserID, limit, offset)
		},
	)
}

func (s *paymentService) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, int64, error) {
	return s.list(ctx, limit, offset, s.repo.Count, s.repo.FindAll)
}

func (s *paymentService) list(
	ctx context.Context,
	limit int, offset int64,
	count func(ctx context.Context) (int64, error),
	find func(ctx context.Context, limit int, offset int64) ([]*model.Payment, error),
) ([]*model.Payment, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		payments []*model.Payment
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if total, err = count(gctx); err != nil {
			s.cfg.Log.Error("Failed to count payments", "error", err)
			return apperrors.Internal("Failed to count payments", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if payments, err = find(gctx, limit, offset); err != nil {
			s.cfg.Log.Error("Failed to list payments", "error", err)
			return apperrors.Internal("Failed to retrieve payments", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (s *paymentService) HasPendingPayment(ctx context.Context, userID string) (bool, error) {
	return s.repo.ExistsByUserAndStatus(ctx, userID, model.PaymentPending)
}

func (s *paymentService) ExpireStale(ctx context.Context) (int64, error) {
	expired, err := s.repo.ExpireStale(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.cfg.Log.Info("Expired stale payments", "count", expired)
	}
	return expired, nil
}

func (s *paymentService) findBySession(ctx context.Context, sessionID string) (*model.Payment, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session_id is required")
	}
	payment, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Payment").WithDetail("session_id", sessionID)
		}
		return nil, apperrors.Internal("Failed to retrieve payment", err)
	}
	return payment, nil
}

func (s *paymentService) translateRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, paymentserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Payment", id)
	case errors.Is(err, paymentserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid payment ID format")
	default:
		return apperrors.Internal(message, err)
	}
}
