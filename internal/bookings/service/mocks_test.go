package service

import (
	"context"
	"sync"
	"time"

	bookingserrors "ebooking/internal/bookings/errors"
	"ebooking/internal/bookings/repository"
	"ebooking/internal/notifications"
	mongotx "ebooking/pkg/db/mongo"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockBookingRepository struct {
	createFunc                    func(ctx context.Context, b *model.Booking) error
	findByIDFunc                  func(ctx context.Context, id string) (*model.Booking, error)
	findByUserAndIDFunc           func(ctx context.Context, userID, id string) (*model.Booking, error)
	findByUserFunc                func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error)
	countByUserFunc               func(ctx context.Context, userID string) (int64, error)
	findActiveByAccommodationFunc func(ctx context.Context, accID string, from, to time.Time) ([]*model.Booking, error)
	transitionStatusFunc          func(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) error
	updateWindowFunc              func(ctx context.Context, id string, in, out time.Time) error
	deleteFunc                    func(ctx context.Context, id string) error
	searchFunc                    func(ctx context.Context, f model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	countSearchFunc               func(ctx context.Context, f model.BookingFilter) (int64, error)
	inTransaction                 bool
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	b.ID = "65f0c0ffee000000000000b1"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByUserAndID(ctx context.Context, userID, id string) (*model.Booking, error) {
	if m.findByUserAndIDFunc != nil {
		return m.findByUserAndIDFunc(ctx, userID, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByUserFunc != nil {
		return m.findByUserFunc(ctx, userID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	if m.countByUserFunc != nil {
		return m.countByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockBookingRepository) FindActiveByAccommodation(ctx context.Context, accID string, from, to time.Time) ([]*model.Booking, error) {
	if m.findActiveByAccommodationFunc != nil {
		return m.findActiveByAccommodationFunc(ctx, accID, from, to)
	}
	return nil, nil
}

func (m *mockBookingRepository) CountActiveByAccommodation(ctx context.Context, accID string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) FindDue(ctx context.Context, at time.Time, mode repository.DueMode) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) TransitionStatus(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus) error {
	if m.transitionStatusFunc != nil {
		return m.transitionStatusFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockBookingRepository) BatchUpdateStatus(ctx context.Context, ids []string, status model.BookingStatus) (int64, error) {
	return int64(len(ids)), nil
}

func (m *mockBookingRepository) UpdateWindow(ctx context.Context, id string, in, out time.Time) error {
	if m.updateWindowFunc != nil {
		return m.updateWindowFunc(ctx, id, in, out)
	}
	return nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) Search(ctx context.Context, f model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, f, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) CountSearch(ctx context.Context, f model.BookingFilter) (int64, error) {
	if m.countSearchFunc != nil {
		return m.countSearchFunc(ctx, f)
	}
	return 0, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.inTransaction = true
	defer func() { m.inTransaction = false }()
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockLocker struct {
	acquireErr error
	acquired   []string
	released   int
}

func (m *mockLocker) Acquire(ctx context.Context, accommodationID string) (func(), error) {
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.acquired = append(m.acquired, accommodationID)
	return func() { m.released++ }, nil
}

type mockAccommodations struct {
	accommodations map[string]*model.Accommodation
	recorded       []string
	recordErr      error
}

func (m *mockAccommodations) RecordReservation(ctx context.Context, id string) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.recorded = append(m.recorded, id)
	return nil
}

func (m *mockAccommodations) GetByID(ctx context.Context, id string) (*model.Accommodation, error) {
	if acc, ok := m.accommodations[id]; ok {
		return acc, nil
	}
	return nil, apperrors.NotFoundWithID("Accommodation", id)
}

type mockPaymentGate struct {
	pending bool
	err     error
}

func (m *mockPaymentGate) HasPendingPayment(ctx context.Context, userID string) (bool, error) {
	return m.pending, m.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, e notifications.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}
