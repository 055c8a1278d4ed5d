package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ebooking/internal/notifications"
	paymentserrors "ebooking/internal/payments/errors"
	"ebooking/internal/payments/gateway"
	mongotx "ebooking/pkg/db/mongo"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockPaymentRepository struct {
	mu           sync.Mutex
	payments     map[string]*model.Payment
	createErr    error
	updateErr    error
	expireFunc   func(ctx context.Context, now time.Time) (int64, error)
	findAllFunc  func(ctx context.Context, limit int, offset int64) ([]*model.Payment, error)
	countFunc    func(ctx context.Context) (int64, error)
	transactions int
}

func newMockPaymentRepository(payments ...*model.Payment) *mockPaymentRepository {
	m := &mockPaymentRepository{payments: map[string]*model.Payment{}}
	for _, p := range payments {
		m.payments[p.ID] = p
	}
	return m
}

func (m *mockPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = "65f0c0ffee000000000000c9"
	m.payments[p.ID] = p
	return nil
}

func (m *mockPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, paymentserrors.ErrNotFound
}

func (m *mockPaymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.SessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, paymentserrors.ErrNotFound
}

func (m *mockPaymentRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPaymentRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	found, _ := m.FindByUser(ctx, userID, 0, 0)
	return int64(len(found)), nil
}

func (m *mockPaymentRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Payment{}, nil
}

func (m *mockPaymentRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockPaymentRepository) UpdateStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return paymentserrors.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockPaymentRepository) ExistsByUserAndStatus(ctx context.Context, userID string, status model.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.UserID == userID && p.Status == status {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPaymentRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	if m.expireFunc != nil {
		return m.expireFunc(ctx, now)
	}
	return 0, nil
}

// The mock commits nothing on failure; callers assert on the returned error.
func (m *mockPaymentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.transactions++
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockGateway struct {
	requests []gateway.CheckoutRequest
	sessions map[string]*gateway.CheckoutSession
	lookups  []string
	err      error
	getErr   error
}

// CreateCheckoutSession opens an unpaid session; tests mark it paid through
// sessions.
func (g *mockGateway) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	cs := &gateway.CheckoutSession{
		ID:        "cs_test_1",
		URL:       "https://checkout.stripe.com/c/pay/cs_test_1",
		ExpiresAt: req.ExpiresAt,
		BookingID: req.BookingID,
	}
	if g.sessions == nil {
		g.sessions = map[string]*gateway.CheckoutSession{}
	}
	g.sessions[cs.ID] = cs
	return cs, nil
}

func (g *mockGateway) GetCheckoutSession(ctx context.Context, id string) (*gateway.CheckoutSession, error) {
	g.lookups = append(g.lookups, id)
	if g.getErr != nil {
		return nil, g.getErr
	}
	if cs, ok := g.sessions[id]; ok {
		cp := *cs
		return &cp, nil
	}
	return nil, errors.New("no such checkout session")
}

type mockBookings struct {
	bookings   map[string]*model.Booking
	confirmErr error
	confirmed  []string
}

func (m *mockBookings) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookings) Confirm(ctx context.Context, id string) error {
	if m.confirmErr != nil {
		return m.confirmErr
	}
	b, ok := m.bookings[id]
	if !ok {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if b.Status != model.BookingPending {
		return apperrors.Conflict("Booking status has changed, please reload it")
	}
	b.Status = model.BookingConfirmed
	m.confirmed = append(m.confirmed, id)
	return nil
}

type mockAccommodations struct {
	accommodations map[string]*model.Accommodation
}

func (m *mockAccommodations) GetByID(ctx context.Context, id string) (*model.Accommodation, error) {
	if a, ok := m.accommodations[id]; ok {
		return a, nil
	}
	return nil, apperrors.NotFoundWithID("Accommodation", id)
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
