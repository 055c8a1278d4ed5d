package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "ebooking/internal/bookings/errors"
	"ebooking/internal/bookings/repository"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/logger"

	"github.com/google/uuid"
)

// Locker serializes check-and-reserve per accommodation. Different
// accommodations never contend.
type Locker interface {
	Acquire(ctx context.Context, accommodationID string) (release func(), err error)
}

type keyedMutex struct {
	mu   sync.Mutex
	refs int
}

type accommodationLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedMutex

	repo repository.BookingLockRepository
	ttl  time.Duration
	log  *logger.Logger
}

// NewAccommodationLocker guards each accommodation with an in-process mutex
// and, across instances, with an advisory lock document.
func NewAccommodationLocker(repo repository.BookingLockRepository, ttl time.Duration, log *logger.Logger) Locker {
	return &accommodationLocker{
		locks: make(map[string]*keyedMutex),
		repo:  repo,
		ttl:   ttl,
		log:   log,
	}
}

func lockID(accommodationID string) string {
	return "booking_lock_" + accommodationID
}

func (l *accommodationLocker) Acquire(ctx context.Context, accommodationID string) (func(), error) {
	unlock := l.lockLocal(accommodationID)

	id, owner := lockID(accommodationID), uuid.NewString()
	if err := l.repo.Acquire(ctx, id, owner, l.ttl); err != nil {
		unlock()
		if errors.Is(err, bookingserrors.ErrLockHeld) {
			return nil, apperrors.Conflict("This accommodation is currently being booked by another request. Please try again.")
		}
		return nil, apperrors.Internal("Failed to acquire booking lock", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be canceled.
			if err := l.repo.Release(context.WithoutCancel(ctx), id, owner); err != nil {
				l.log.Warn("Failed to release booking lock", "lock_id", id, "error", err)
			}
			unlock()
		})
	}, nil
}

func (l *accommodationLocker) lockLocal(key string) func() {
	l.mu.Lock()
	km, ok := l.locks[key]
	if !ok {
		km = &keyedMutex{}
		l.locks[key] = km
	}
	km.refs++
	l.mu.Unlock()

	km.mu.Lock()

	return func() {
		km.mu.Unlock()

		l.mu.Lock()
		km.refs--
		if km.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
