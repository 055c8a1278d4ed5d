package sweep

import (
	"context"
	"fmt"
	"time"

	bookingserrors "ebooking/internal/bookings/errors"
	"ebooking/internal/bookings/repository"
	"ebooking/internal/notifications"
	"ebooking/pkg/clock"
	mongotx "ebooking/pkg/db/mongo"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/logger"
	"ebooking/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the booking storage a sweep reads and writes.
type Store interface {
	FindDue(ctx context.Context, at time.Time, mode repository.DueMode) ([]*model.Booking, error)
	CountActiveByAccommodation(ctx context.Context, accommodationID string) (int64, error)
	BatchUpdateStatus(ctx context.Context, ids []string, status model.BookingStatus) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type AccommodationStore interface {
	GetByID(ctx context.Context, id string) (*model.Accommodation, error)
}

type Report struct {
	RunAt          time.Time              `json:"run_at"`
	ExpiredCount   int                    `json:"expired_count"`
	Accommodations []model.ReleaseSummary `json:"accommodations"`
}

type Sweeper struct {
	store          Store
	accommodations AccommodationStore
	notifier       notifications.Notifier
	clock          clock.Clock
	mode           repository.DueMode
	log            *logger.Logger
}

// ParseMode maps the configured sweep mode to a due-booking query.
func ParseMode(mode string) repository.DueMode {
	if mode == "exact" {
		return repository.DueExact
	}
	return repository.DueCatchup
}

func NewSweeper(store Store, accommodations AccommodationStore, notifier notifications.Notifier, clk clock.Clock, mode repository.DueMode, log *logger.Logger) *Sweeper {
	if notifier == nil {
		notifier = notifications.Noop{}
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Sweeper{
		store:          store,
		accommodations: accommodations,
		notifier:       notifier,
		clock:          clk,
		mode:           mode,
		log:            log.Component("sweep"),
	}
}

// affected is what the transaction learns about one accommodation.
type affected struct {
	accommodation *model.Accommodation
	active        int64
	expired       int
}

// Run expires every due booking in one transaction and, after commit,
// announces the capacity freed per accommodation.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	runAt := s.clock.Now().UTC().Truncate(time.Hour)
	report := &Report{RunAt: runAt, Accommodations: []model.ReleaseSummary{}}

	var (
		order   []string
		byAccID map[string]*affected
		expired int
	)
	err := s.store.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// The callback may be retried on transient errors; start clean.
		order, byAccID, expired = nil, map[string]*affected{}, 0

		due, err := s.store.FindDue(sessCtx, runAt, s.mode)
		if err != nil {
			return fmt.Errorf("failed to find due bookings: %w", err)
		}
		if len(due) == 0 {
			return nil
		}

		ids := make([]string, 0, len(due))
		for _, b := range due {
			ids = append(ids, b.ID)
			a, ok := byAccID[b.AccommodationID]
			if !ok {
				a = &affected{}
				byAccID[b.AccommodationID] = a
				order = append(order, b.AccommodationID)
			}
			a.expired++
		}

		for _, accID := range order {
			a := byAccID[accID]
			if a.active, err = s.store.CountActiveByAccommodation(sessCtx, accID); err != nil {
				return fmt.Errorf("failed to count active bookings for %s: %w", accID, err)
			}
			acc, err := s.accommodations.GetByID(sessCtx, accID)
			switch {
			case apperrors.HasCode(err, apperrors.CodeNotFound):
				s.log.Warn("Accommodation of due bookings no longer exists", "accommodation_id", accID, "expired", a.expired)
			case err != nil:
				return fmt.Errorf("failed to load accommodation %s: %w", accID, err)
			default:
				a.accommodation = acc
			}
		}

		modified, err := s.store.BatchUpdateStatus(sessCtx, ids, model.BookingExpired)
		if err != nil {
			return fmt.Errorf("failed to expire bookings: %w", err)
		}
		if modified != int64(len(ids)) {
			return fmt.Errorf("%w: %d of %d", bookingserrors.ErrPartialUpdate, modified, len(ids))
		}
		expired = len(ids)
		return nil
	})
	if err != nil {
		s.log.Error("Sweep aborted", "run_at", runAt, "error", err)
		return nil, err
	}

	report.ExpiredCount = expired
	if expired == 0 {
		s.log.Debug("Nothing to expire", "run_at", runAt)
		return report, nil
	}

	for _, accID := range order {
		a := byAccID[accID]
		if a.accommodation == nil {
			continue
		}
		report.Accommodations = append(report.Accommodations, model.ReleaseSummary{
			Accommodation: *a.accommodation,
			ExpiredCount:  a.expired,
			AvailableNow:  availableNow(a),
		})
	}

	s.log.Info("Sweep finished",
		"run_at", runAt,
		"expired", report.ExpiredCount,
		"accommodations", len(report.Accommodations),
	)
	if len(report.Accommodations) > 0 {
		s.notifier.Notify(ctx, notifications.AccommodationsReleased(runAt, report.Accommodations))
	}
	return report, nil
}

// availableNow is the capacity left once the expired bookings stop counting.
func availableNow(a *affected) int {
	stillActive := a.active - int64(a.expired)
	return max(a.accommodation.Availability-int(stillActive), 0)
}
