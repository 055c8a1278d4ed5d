package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ebooking/internal/availability"
	bookingserrors "ebooking/internal/bookings/errors"
	"ebooking/internal/bookings/validator"
	"ebooking/internal/notifications"
	"ebooking/pkg/clock"
	"ebooking/pkg/config"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/logger"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	accID  = "65f0c0ffee000000000000a1"
	bookID = "65f0c0ffee000000000000b1"
)

var now = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	repo     *mockBookingRepository
	locker   *mockLocker
	accs     *mockAccommodations
	payments *mockPaymentGate
	notifier *recordingNotifier
	svc      BookingService
}

func newFixture(capacity int) *fixture {
	log := logger.Discard()
	f := &fixture{
		repo:   &mockBookingRepository{},
		locker: &mockLocker{},
		accs: &mockAccommodations{accommodations: map[string]*model.Accommodation{
			accID: {ID: accID, Type: model.AccommodationHouse, Location: "Lviv", Availability: capacity, DailyRate: 5000},
		}},
		payments: &mockPaymentGate{},
		notifier: &recordingNotifier{},
	}
	cfg := &config.Config{Log: log, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	f.svc = NewBookingService(Dependencies{
		Repo:           f.repo,
		Locker:         f.locker,
		Checker:        availability.NewChecker(availability.StrictOverlap),
		Accommodations: f.accs,
		Payments:       f.payments,
		Notifier:       f.notifier,
		Validator:      validator.NewBookingValidator(log),
		Clock:          clock.NewManual(now),
	}, cfg)
	return f
}

func request(inDays, outDays int) *model.BookingRequest {
	return &model.BookingRequest{
		AccommodationID: accID,
		CheckIn:         now.AddDate(0, 0, inDays),
		CheckOut:        now.AddDate(0, 0, outDays),
	}
}

var user = model.Principal{UserID: "user-1", Name: "Iryna", Role: model.RoleUser}

func TestCreate_Success(t *testing.T) {
	f := newFixture(1)
	var sawSession bool
	f.repo.createFunc = func(ctx context.Context, b *model.Booking) error {
		_, sawSession = ctx.(mongo.SessionContext)
		b.ID = bookID
		return nil
	}

	booking, err := f.svc.Create(context.Background(), user, request(1, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingPending || booking.UserID != user.UserID {
		t.Errorf("unexpected booking: %+v", booking)
	}
	if !sawSession {
		t.Error("booking should be inserted inside the transaction")
	}
	if len(f.accs.recorded) != 1 || f.accs.recorded[0] != accID {
		t.Errorf("reservation should be recorded on the accommodation, got %v", f.accs.recorded)
	}
	if len(f.locker.acquired) != 1 || f.locker.acquired[0] != accID || f.locker.released != 1 {
		t.Errorf("lock not acquired and released once: %+v", f.locker)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Type != notifications.EventBookingCreated {
		t.Fatalf("expected one BOOKING_CREATED event, got %+v", f.notifier.events)
	}
	if f.notifier.events[0].Accommodation.Location != "Lviv" {
		t.Error("event should carry the accommodation")
	}
}

func TestCreate_RejectsWhenFull(t *testing.T) {
	f := newFixture(1)
	f.repo.findActiveByAccommodationFunc = func(ctx context.Context, id string, from, to time.Time) ([]*model.Booking, error) {
		return []*model.Booking{{
			ID:       "other",
			CheckIn:  now.AddDate(0, 0, 2),
			CheckOut: now.AddDate(0, 0, 4),
			Status:   model.BookingConfirmed,
		}}, nil
	}
	f.repo.createFunc = func(ctx context.Context, b *model.Booking) error {
		t.Fatal("create must not be called on conflict")
		return nil
	}

	_, err := f.svc.Create(context.Background(), user, request(1, 3))
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	appErr := apperrors.AsAppError(err)
	conflicts, ok := appErr.Details["conflicts"].([]string)
	if !ok || len(conflicts) != 1 {
		t.Fatalf("expected one conflict summary, got %v", appErr.Details)
	}
	if f.locker.released != 1 {
		t.Error("lock should be released on conflict")
	}
	if len(f.notifier.events) != 0 {
		t.Error("no notification on conflict")
	}
}

func TestCreate_AcceptsWithSpareCapacity(t *testing.T) {
	f := newFixture(2)
	f.repo.findActiveByAccommodationFunc = func(ctx context.Context, id string, from, to time.Time) ([]*model.Booking, error) {
		return []*model.Booking{{ID: "other", CheckIn: now.AddDate(0, 0, 1), CheckOut: now.AddDate(0, 0, 3), Status: model.BookingPending}}, nil
	}
	if _, err := f.svc.Create(context.Background(), user, request(1, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		req   *model.BookingRequest
		code  string
	}{
		{"pending payment", func(f *fixture) { f.payments.pending = true }, request(1, 2), apperrors.CodePendingPayment},
		{"payment lookup fails", func(f *fixture) { f.payments.err = errors.New("db down") }, request(1, 2), apperrors.CodeInternal},
		{"missing accommodation", func(f *fixture) { f.accs.accommodations = nil }, request(1, 2), apperrors.CodeNotFound},
		{"check-in in the past", nil, request(-1, 2), apperrors.CodeValidation},
		{"check-out before check-in", nil, request(3, 2), apperrors.CodeValidation},
		{"missing accommodation id", nil, &model.BookingRequest{CheckIn: now.Add(time.Hour), CheckOut: now.Add(48 * time.Hour)}, apperrors.CodeValidation},
		{"lock held", func(f *fixture) { f.locker.acquireErr = apperrors.Conflict("busy") }, request(1, 2), apperrors.CodeConflict},
		{"reservation write conflicts", func(f *fixture) {
			f.accs.recordErr = errors.New("write conflict")
		}, request(1, 2), apperrors.CodeInternal},
		{"store failure", func(f *fixture) {
			f.repo.createFunc = func(context.Context, *model.Booking) error { return errors.New("write failed") }
		}, request(1, 2), apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(1)
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.Create(context.Background(), user, tt.req)
			if !apperrors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if len(f.notifier.events) != 0 {
				t.Error("failed create must not notify")
			}
		})
	}
}

func TestUpdate_ExcludesItself(t *testing.T) {
	f := newFixture(1)
	existing := &model.Booking{
		ID:              bookID,
		AccommodationID: accID,
		UserID:          user.UserID,
		CheckIn:         now.AddDate(0, 0, 1),
		CheckOut:        now.AddDate(0, 0, 3),
		Status:          model.BookingPending,
	}
	f.repo.findByUserAndIDFunc = func(ctx context.Context, userID, id string) (*model.Booking, error) {
		if userID != user.UserID {
			return nil, bookingserrors.ErrNotFound
		}
		cp := *existing
		return &cp, nil
	}
	f.repo.findActiveByAccommodationFunc = func(ctx context.Context, id string, from, to time.Time) ([]*model.Booking, error) {
		return []*model.Booking{existing}, nil
	}
	var updatedOut time.Time
	f.repo.updateWindowFunc = func(ctx context.Context, id string, in, out time.Time) error {
		updatedOut = out
		return nil
	}

	newOut := now.AddDate(0, 0, 5)
	booking, err := f.svc.Update(context.Background(), user, bookID, &model.BookingUpdate{CheckOut: &newOut})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updatedOut.Equal(newOut) || !booking.CheckOut.Equal(newOut) {
		t.Errorf("check-out not updated: %v", updatedOut)
	}
	if !booking.CheckIn.Equal(existing.CheckIn) {
		t.Error("check-in should be kept from the stored booking")
	}
}

func TestUpdate_Failures(t *testing.T) {
	later := now.AddDate(0, 0, 4)

	t.Run("not owner", func(t *testing.T) {
		f := newFixture(1)
		_, err := f.svc.Update(context.Background(), user, bookID, &model.BookingUpdate{CheckOut: &later})
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("canceled booking", func(t *testing.T) {
		f := newFixture(1)
		f.repo.findByUserAndIDFunc = func(ctx context.Context, userID, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, AccommodationID: accID, Status: model.BookingCanceled, CheckIn: now.AddDate(0, 0, 1), CheckOut: now.AddDate(0, 0, 2)}, nil
		}
		_, err := f.svc.Update(context.Background(), user, bookID, &model.BookingUpdate{CheckOut: &later})
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("empty update", func(t *testing.T) {
		f := newFixture(1)
		_, err := f.svc.Update(context.Background(), user, bookID, &model.BookingUpdate{})
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		f := newFixture(1)
		f.repo.findByUserAndIDFunc = func(ctx context.Context, userID, id string) (*model.Booking, error) {
			return nil, bookingserrors.ErrInvalidID
		}
		_, err := f.svc.Update(context.Background(), user, "nope", &model.BookingUpdate{CheckOut: &later})
		if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
}

func TestCancel(t *testing.T) {
	f := newFixture(1)
	status := model.BookingPending
	f.repo.findByUserAndIDFunc = func(ctx context.Context, userID, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, AccommodationID: accID, UserID: userID, Status: status}, nil
	}
	var newStatus model.BookingStatus
	f.repo.transitionStatusFunc = func(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) error {
		newStatus = to
		return nil
	}

	booking, err := f.svc.Cancel(context.Background(), user, bookID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newStatus != model.BookingCanceled || booking.Status != model.BookingCanceled {
		t.Errorf("status = %s", newStatus)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Type != notifications.EventBookingCanceled {
		t.Errorf("expected BOOKING_CANCELED, got %+v", f.notifier.events)
	}

	status = model.BookingCanceled
	if _, err := f.svc.Cancel(context.Background(), user, bookID); !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("canceling twice should conflict, got %v", err)
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	f := newFixture(1)
	deleted := false
	f.repo.deleteFunc = func(ctx context.Context, id string) error {
		deleted = true
		return nil
	}

	if err := f.svc.Delete(context.Background(), user, bookID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign booking, got %v", err)
	}
	if deleted {
		t.Fatal("foreign booking must not be deleted")
	}

	f.repo.findByUserAndIDFunc = func(ctx context.Context, userID, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, UserID: userID}, nil
	}
	if err := f.svc.Delete(context.Background(), user, bookID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("booking should be deleted")
	}
}

func TestGetByID_AdminSeesAll(t *testing.T) {
	f := newFixture(1)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, UserID: "someone-else"}, nil
	}

	admin := model.Principal{UserID: "admin", Role: model.RoleAdmin}
	if _, err := f.svc.GetByID(context.Background(), admin, bookID); err != nil {
		t.Fatalf("admin should read any booking: %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), user, bookID); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("user should only read own bookings, got %v", err)
	}
}

func TestListMine(t *testing.T) {
	f := newFixture(1)
	var gotLimit int
	f.repo.findByUserFunc = func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
		gotLimit = limit
		return []*model.Booking{{ID: "a"}, {ID: "b"}}, nil
	}
	f.repo.countByUserFunc = func(ctx context.Context, userID string) (int64, error) { return 7, nil }

	bookings, total, err := f.svc.ListMine(context.Background(), user, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookings) != 2 || total != 7 {
		t.Errorf("got %d bookings, total %d", len(bookings), total)
	}
	if gotLimit != 10 {
		t.Errorf("limit should default to 10, got %d", gotLimit)
	}

	f.repo.countByUserFunc = func(ctx context.Context, userID string) (int64, error) { return 0, errors.New("boom") }
	if _, _, err := f.svc.ListMine(context.Background(), user, 10, 0); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestSearch_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(1)
	_, _, err := f.svc.Search(context.Background(), model.BookingFilter{Statuses: []model.BookingStatus{"LOST"}}, 10, 0)
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(1)
	stored := &model.Booking{ID: bookID, AccommodationID: accID, Status: model.BookingPending}
	var from []model.BookingStatus
	f.repo.transitionStatusFunc = func(ctx context.Context, id string, allowed []model.BookingStatus, to model.BookingStatus) error {
		from = allowed
		stored.Status = to
		return nil
	}
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := *stored
		return &b, nil
	}

	booking, err := f.svc.UpdateStatus(context.Background(), bookID, &model.BookingStatusUpdate{Status: model.BookingConfirmed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.BookingConfirmed {
		t.Errorf("status = %s", booking.Status)
	}
	if len(from) != 1 || from[0] != model.BookingPending {
		t.Errorf("transition should be conditional on the loaded status, got %v", from)
	}
	if len(f.locker.acquired) != 0 {
		t.Error("an active-to-active change should not take the accommodation lock")
	}

	if _, err := f.svc.UpdateStatus(context.Background(), bookID, &model.BookingStatusUpdate{Status: "LOST"}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateStatus_ReactivationChecksAvailability(t *testing.T) {
	canceled := func() *model.Booking {
		return &model.Booking{
			ID:              bookID,
			AccommodationID: accID,
			UserID:          "user-1",
			CheckIn:         now.AddDate(0, 0, 1),
			CheckOut:        now.AddDate(0, 0, 3),
			Status:          model.BookingCanceled,
		}
	}

	t.Run("rejected when the units were re-sold", func(t *testing.T) {
		f := newFixture(1)
		f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) { return canceled(), nil }
		f.repo.findActiveByAccommodationFunc = func(ctx context.Context, accID string, from, to time.Time) ([]*model.Booking, error) {
			return []*model.Booking{{
				ID:       "65f0c0ffee000000000000b2",
				CheckIn:  now.AddDate(0, 0, 2),
				CheckOut: now.AddDate(0, 0, 4),
				Status:   model.BookingConfirmed,
			}}, nil
		}
		transitioned := false
		f.repo.transitionStatusFunc = func(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) error {
			transitioned = true
			return nil
		}

		_, err := f.svc.UpdateStatus(context.Background(), bookID, &model.BookingStatusUpdate{Status: model.BookingConfirmed})
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("expected availability conflict, got %v", err)
		}
		if transitioned {
			t.Error("booking must not be revived without capacity")
		}
		if len(f.locker.acquired) != 1 || f.locker.released != 1 {
			t.Errorf("lock acquired=%v released=%d", f.locker.acquired, f.locker.released)
		}
	})

	t.Run("accepted when capacity is free", func(t *testing.T) {
		f := newFixture(1)
		stored := canceled()
		f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
			b := *stored
			return &b, nil
		}
		f.repo.transitionStatusFunc = func(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) error {
			if !f.repo.inTransaction {
				t.Error("reactivation should run inside the reserve transaction")
			}
			if len(from) != 1 || from[0] != model.BookingCanceled {
				t.Errorf("from = %v", from)
			}
			stored.Status = to
			return nil
		}

		booking, err := f.svc.UpdateStatus(context.Background(), bookID, &model.BookingStatusUpdate{Status: model.BookingPending})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if booking.Status != model.BookingPending {
			t.Errorf("status = %s", booking.Status)
		}
		if len(f.accs.recorded) != 1 || f.accs.recorded[0] != accID {
			t.Errorf("reservation not recorded on accommodation: %v", f.accs.recorded)
		}
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		code    string
	}{
		{"pending booking", nil, ""},
		{"missing booking", bookingserrors.ErrNotFound, apperrors.CodeNotFound},
		{"canceled or expired meanwhile", bookingserrors.ErrStatusChanged, apperrors.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(1)
			var from []model.BookingStatus
			var to model.BookingStatus
			f.repo.transitionStatusFunc = func(ctx context.Context, id string, allowed []model.BookingStatus, status model.BookingStatus) error {
				from, to = allowed, status
				return tt.repoErr
			}

			err := f.svc.Confirm(context.Background(), bookID)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			} else if !apperrors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if len(from) != 1 || from[0] != model.BookingPending || to != model.BookingConfirmed {
				t.Errorf("confirm must only move PENDING to CONFIRMED, got %v -> %s", from, to)
			}
		})
	}
}
