package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bookingserrors "ebooking/internal/bookings/errors"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/logger"
)

type mockLockRepository struct {
	mu       sync.Mutex
	holders  map[string]string
	released []string
	err      error
}

func newMockLockRepository() *mockLockRepository {
	return &mockLockRepository{holders: map[string]string{}}
}

func (m *mockLockRepository) Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, held := m.holders[lockID]; held {
		return bookingserrors.ErrLockHeld
	}
	m.holders[lockID] = owner
	return nil
}

func (m *mockLockRepository) Release(ctx context.Context, lockID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holders[lockID] == owner {
		delete(m.holders, lockID)
	}
	m.released = append(m.released, lockID)
	return nil
}

func TestLocker_SerializesSameAccommodation(t *testing.T) {
	l := NewAccommodationLocker(newMockLockRepository(), time.Minute, logger.Discard())

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "acc-1")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxInside)
	}
}

func TestLocker_DifferentAccommodationsDoNotContend(t *testing.T) {
	l := NewAccommodationLocker(newMockLockRepository(), time.Minute, logger.Discard())

	releaseA, err := l.Acquire(context.Background(), "acc-a")
	if err != nil {
		t.Fatal(err)
	}
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release, err := l.Acquire(context.Background(), "acc-b")
		if err == nil {
			release()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another accommodation blocked")
	}
}

func TestLocker_ForeignLockIsConflict(t *testing.T) {
	repo := newMockLockRepository()
	repo.holders[lockID("acc-1")] = "other-instance"
	l := NewAccommodationLocker(repo, time.Minute, logger.Discard())

	_, err := l.Acquire(context.Background(), "acc-1")
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// The local mutex must have been released.
	delete(repo.holders, lockID("acc-1"))
	release, err := l.Acquire(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	release()
	release()
	if len(repo.released) != 1 {
		t.Errorf("release should be idempotent, released %d times", len(repo.released))
	}
}

func TestLocker_StoreFailureIsInternal(t *testing.T) {
	repo := newMockLockRepository()
	repo.err = errors.New("connection refused")
	l := NewAccommodationLocker(repo, time.Minute, logger.Discard())

	if _, err := l.Acquire(context.Background(), "acc-1"); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
