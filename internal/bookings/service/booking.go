package service

import (
	"context"
	"errors"
	"fmt"

	"ebooking/internal/availability"
	bookingserrors "ebooking/internal/bookings/errors"
	"ebooking/internal/bookings/repository"
	"ebooking/internal/bookings/validator"
	"ebooking/internal/notifications"
	"ebooking/pkg/clock"
	"ebooking/pkg/config"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const unpaidReservations = "The user has unpaid reservations!"

type BookingService interface {
	Create(ctx context.Context, p model.Principal, req *model.BookingRequest) (*model.Booking, error)
	Update(ctx context.Context, p model.Principal, id string, update *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, p model.Principal, id string) (*model.Booking, error)
	Delete(ctx context.Context, p model.Principal, id string) error
	GetByID(ctx context.Context, p model.Principal, id string) (*model.Booking, error)
	ListMine(ctx context.Context, p model.Principal, limit int, offset int64) ([]*model.Booking, int64, error)
	Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, id string, status *model.BookingStatusUpdate) (*model.Booking, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Confirm(ctx context.Context, id string) error
}

// AccommodationStore loads the accommodation a booking is made on. Missing
// accommodations are reported as a NotFound AppError.
//
// RecordReservation writes to the accommodation document inside the reserve
// transaction, so two transactions reserving on the same accommodation
// write-conflict even if they hold no lock.
type AccommodationStore interface {
	GetByID(ctx context.Context, id string) (*model.Accommodation, error)
	RecordReservation(ctx context.Context, id string) error
}

// PaymentGate tells whether a user still owes a payment.
type PaymentGate interface {
	HasPendingPayment(ctx context.Context, userID string) (bool, error)
}

type bookingService struct {
	repo           repository.BookingRepository
	locker         Locker
	checker        *availability.Checker
	accommodations AccommodationStore
	payments       PaymentGate
	notifier       notifications.Notifier
	validator      *validator.BookingValidator
	clock          clock.Clock
	cfg            *config.Config
}

type Dependencies struct {
	Repo           repository.BookingRepository
	Locker         Locker
	Checker        *availability.Checker
	Accommodations AccommodationStore
	Payments       PaymentGate
	Notifier       notifications.Notifier
	Validator      *validator.BookingValidator
	Clock          clock.Clock
}

func NewBookingService(deps Dependencies, cfg *config.Config) BookingService {
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	return &bookingService{
		repo:           deps.Repo,
		locker:         deps.Locker,
		checker:        deps.Checker,
		accommodations: deps.Accommodations,
		payments:       deps.Payments,
		notifier:       deps.Notifier,
		validator:      deps.Validator,
		clock:          deps.Clock,
		cfg:            cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, p model.Principal, req *model.BookingRequest) (*model.Booking, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user_id", p.UserID, "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	pending, err := s.payments.HasPendingPayment(ctx, p.UserID)
	if err != nil {
		return nil, apperrors.Internal("Failed to check pending payments", err)
	}
	if pending {
		return nil, apperrors.PendingPayment(unpaidReservations)
	}

	booking := &model.Booking{
		AccommodationID: req.AccommodationID,
		UserID:          p.UserID,
		CheckIn:         req.CheckIn.UTC(),
		CheckOut:        req.CheckOut.UTC(),
		Status:          model.BookingPending,
	}

	release, err := s.locker.Acquire(ctx, booking.AccommodationID)
	if err != nil {
		return nil, err
	}
	defer release()

	var acc *model.Accommodation
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		acc, err = s.reserve(sessCtx, booking, "")
		if err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to create booking", err, "accommodation_id", booking.AccommodationID, "user_id", p.UserID)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"accommodation_id", booking.AccommodationID,
		"user_id", booking.UserID,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
	)
	s.notifier.Notify(ctx, notifications.BookingCreated(s.clock.Now(), booking, acc, p))
	return booking, nil
}

func (s *bookingService) Update(ctx context.Context, p model.Principal, id string, update *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.findOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !existing.Status.IsActive() {
		return nil, apperrors.Conflict(fmt.Sprintf("Booking with status %s cannot be updated", existing.Status))
	}

	merged := *existing
	if update.CheckIn != nil {
		merged.CheckIn = update.CheckIn.UTC()
	}
	if update.CheckOut != nil {
		merged.CheckOut = update.CheckOut.UTC()
	}

	release, err := s.locker.Acquire(ctx, merged.AccommodationID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.reserve(sessCtx, &merged, id); err != nil {
			return err
		}
		if err := s.repo.UpdateWindow(sessCtx, id, merged.CheckIn, merged.CheckOut); err != nil {
			return s.translateRepoError(err, id, "Failed to update booking")
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to update booking", err, "id", id)
		return nil, err
	}

	merged.UpdatedAt = s.clock.Now().UTC()
	s.cfg.Log.Info("Booking updated successfully", "id", id, "check_in", merged.CheckIn, "check_out", merged.CheckOut)
	return &merged, nil
}

// reserve loads the accommodation and the reservations overlapping b, and
// rejects b if it does not fit. excludeID is the booking being updated.
func (s *bookingService) reserve(ctx context.Context, b *model.Booking, excludeID string) (*model.Accommodation, error) {
	acc, err := s.accommodations.GetByID(ctx, b.AccommodationID)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to load accommodation", err)
	}

	existing, err := s.repo.FindActiveByAccommodation(ctx, b.AccommodationID, b.CheckIn, b.CheckOut)
	if err != nil {
		return nil, apperrors.Internal("Failed to check existing bookings", err)
	}

	decision, err := s.checker.Check(availability.Request{
		AccommodationID: b.AccommodationID,
		Candidate:       availability.NewWindow(b.CheckIn, b.CheckOut),
		Capacity:        acc.Availability,
		Existing:        availability.ReservationsFromBookings(existing),
		ExcludeID:       excludeID,
		Now:             s.clock.Now(),
	})
	if err != nil {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	if !decision.Accepted {
		return nil, apperrors.AvailabilityConflict(decision.Reason(), decision.Summaries())
	}

	if err := s.accommodations.RecordReservation(ctx, b.AccommodationID); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to record reservation", err)
	}
	return acc, nil
}

func (s *bookingService) Cancel(ctx context.Context, p model.Principal, id string) (*model.Booking, error) {
	booking, err := s.findOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingCanceled {
		return nil, apperrors.Conflict("Booking is already canceled")
	}
	if booking.Status == model.BookingExpired {
		return nil, apperrors.Conflict("Expired booking cannot be canceled")
	}

	if err := s.repo.TransitionStatus(ctx, id, model.ActiveBookingStatuses, model.BookingCanceled); err != nil {
		return nil, s.translateRepoError(err, id, "Failed to cancel booking")
	}
	booking.Status = model.BookingCanceled
	booking.UpdatedAt = s.clock.Now().UTC()

	acc, err := s.accommodations.GetByID(ctx, booking.AccommodationID)
	if err != nil {
		s.cfg.Log.Warn("Canceled booking refers to unknown accommodation",
			"id", id,
			"accommodation_id", booking.AccommodationID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Booking canceled", "id", id, "user_id", p.UserID)
	s.notifier.Notify(ctx, notifications.BookingCanceled(s.clock.Now(), booking, acc, p))
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, p model.Principal, id string) error {
	if _, err := s.findOwned(ctx, p, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translateRepoError(err, id, "Failed to delete booking")
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// GetByID returns any booking to an admin and only their own to a user.
func (s *bookingService) GetByID(ctx context.Context, p model.Principal, id string) (*model.Booking, error) {
	if p.IsAdmin() {
		return s.FindByID(ctx, id)
	}
	return s.findOwned(ctx, p, id)
}

func (s *bookingService) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) findOwned(ctx context.Context, p model.Principal, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.repo.FindByUserAndID(ctx, p.UserID, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) ListMine(ctx context.Context, p model.Principal, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		bookings []*model.Booking
		count    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.CountByUser(gctx, p.UserID)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "user_id", p.UserID, "error", err)
			return apperrors.Internal("Failed to count bookings", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookings, err = s.repo.FindByUser(gctx, p.UserID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings", "user_id", p.UserID, "error", err)
			return apperrors.Internal("Failed to retrieve bookings", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return bookings, count, nil
}

func (s *bookingService) Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown booking status: %s", st))
		}
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		bookings []*model.Booking
		count    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.CountSearch(gctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings by search", "error", err)
			return apperrors.Internal("Failed to count bookings", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookings, err = s.repo.Search(gctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search bookings", "limit", limit, "offset", offset, "error", err)
			return apperrors.Internal("Failed to search bookings", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	s.cfg.Log.Debug("Booking search completed",
		"user_ids", filter.UserIDs,
		"statuses", filter.Statuses,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

// UpdateStatus moves a booking to any status. Bringing a canceled or expired
// booking back into an active status takes capacity again, so it is checked
// against the accommodation like a new booking.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if err := s.validator.ValidateStatus(update); err != nil {
		return nil, apperrors.Validation("Invalid status", map[string]any{"error": err.Error()})
	}

	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == update.Status {
		return existing, nil
	}

	from := []model.BookingStatus{existing.Status}
	if update.Status.IsActive() && !existing.Status.IsActive() {
		err = s.reactivate(ctx, existing, update.Status)
	} else if err = s.repo.TransitionStatus(ctx, id, from, update.Status); err != nil {
		err = s.translateRepoError(err, id, "Failed to update booking status")
	}
	if err != nil {
		s.logFailure("Failed to update booking status", err, "id", id, "from", existing.Status, "to", update.Status)
		return nil, err
	}

	s.cfg.Log.Info("Booking status updated", "id", id, "from", existing.Status, "to", update.Status)
	return s.FindByID(ctx, id)
}

func (s *bookingService) reactivate(ctx context.Context, b *model.Booking, status model.BookingStatus) error {
	release, err := s.locker.Acquire(ctx, b.AccommodationID)
	if err != nil {
		return err
	}
	defer release()

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.reserve(sessCtx, b, b.ID); err != nil {
			return err
		}
		from := []model.BookingStatus{b.Status}
		if err := s.repo.TransitionStatus(sessCtx, b.ID, from, status); err != nil {
			return s.translateRepoError(err, b.ID, "Failed to update booking status")
		}
		return nil
	})
}

// Confirm marks a pending booking as paid. A booking that was canceled or
// expired meanwhile is not revived.
func (s *bookingService) Confirm(ctx context.Context, id string) error {
	pending := []model.BookingStatus{model.BookingPending}
	if err := s.repo.TransitionStatus(ctx, id, pending, model.BookingConfirmed); err != nil {
		return s.translateRepoError(err, id, "Failed to confirm booking")
	}
	s.cfg.Log.Info("Booking confirmed", "id", id)
	return nil
}

func (s *bookingService) translateRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrStatusChanged):
		return apperrors.Conflict("Booking status has changed, please reload it")
	default:
		return apperrors.Internal(message, err)
	}
}

// Client errors are expected traffic; only store failures are logged as
// errors.
func (s *bookingService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if appErr := apperrors.AsAppError(err); appErr.StatusCode() < 500 {
		s.cfg.Log.Warn(msg, args...)
		return
	}
	s.cfg.Log.Error(msg, args...)
}
