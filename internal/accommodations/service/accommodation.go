package service

import (
	"context"
	"errors"

	accommodationserrors "ebooking/internal/accommodations/errors"
	"ebooking/internal/accommodations/repository"
	"ebooking/internal/accommodations/validator"
	"ebooking/internal/notifications"
	"ebooking/pkg/clock"
	"ebooking/pkg/config"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/model"
	"ebooking/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

type AccommodationService interface {
	Create(ctx context.Context, acc *model.Accommodation) error
	GetByID(ctx context.Context, id string) (*model.Accommodation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Accommodation, int64, error)
	Update(ctx context.Context, id string, update *model.AccommodationUpdate) (*model.Accommodation, error)
	Delete(ctx context.Context, id string) error
	GetCapacity(ctx context.Context, id string) (int, error)
	RecordReservation(ctx context.Context, id string) error
}

type accommodationService struct {
	repo      repository.AccommodationRepository
	validator *validator.AccommodationValidator
	notifier  notifications.Notifier
	clock     clock.Clock
	cfg       *config.Config
}

func NewAccommodationService(
	repo repository.AccommodationRepository,
	validator *validator.AccommodationValidator,
	notifier notifications.Notifier,
	clk clock.Clock,
	cfg *config.Config,
) AccommodationService {
	if notifier == nil {
		notifier = notifications.Noop{}
	}
	if clk == nil {
		clk = clock.System()
	}
	return &accommodationService{
		repo:      repo,
		validator: validator,
		notifier:  notifier,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *accommodationService) Create(ctx context.Context, acc *model.Accommodation) error {
	acc.ID = ""
	s.sanitize(acc)
	if err := s.validator.ValidateNew(acc); err != nil {
		s.cfg.Log.Warn("Accommodation validation failed", "error", err)
		return apperrors.Validation("Accommodation validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, acc); err != nil {
		s.cfg.Log.Error("Failed to create accommodation", "error", err)
		return apperrors.Internal("Failed to create accommodation", err)
	}

	s.cfg.Log.Info("Accommodation created successfully",
		"id", acc.ID,
		"type", acc.Type,
		"availability", acc.Availability,
	)
	s.notifier.Notify(ctx, notifications.AccommodationCreated(s.clock.Now(), acc))
	return nil
}

func (s *accommodationService) GetByID(ctx context.Context, id string) (*model.Accommodation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Accommodation ID cannot be empty")
	}

	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve accommodation")
	}
	return acc, nil
}

func (s *accommodationService) GetCapacity(ctx context.Context, id string) (int, error) {
	acc, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return acc.Availability, nil
}

// RecordReservation bumps the accommodation's reservation counter. Called
// inside a booking transaction it makes concurrent reservations on the same
// accommodation conflict, so one of them retries against fresh data.
func (s *accommodationService) RecordReservation(ctx context.Context, id string) error {
	if err := s.repo.IncrementReservationSeq(ctx, id); err != nil {
		return s.translateRepoError(err, id, "Failed to record reservation")
	}
	return nil
}

func (s *accommodationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Accommodation, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		accommodations []*model.Accommodation
		count          int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count accommodations", "error", err)
			return apperrors.Internal("Failed to count accommodations", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		accommodations, err = s.repo.FindAll(gctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list accommodations", "error", err)
			return apperrors.Internal("Failed to retrieve accommodations", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return accommodations, count, nil
}

func (s *accommodationService) Update(ctx context.Context, id string, update *model.AccommodationUpdate) (*model.Accommodation, error) {
	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := mergeUpdate(existing, update)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		return nil, apperrors.Validation("Accommodation validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, s.translateRepoError(err, id, "Failed to update accommodation")
	}

	s.cfg.Log.Info("Accommodation updated successfully", "id", id)
	return merged, nil
}

func (s *accommodationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Accommodation ID cannot be empty")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translateRepoError(err, id, "Failed to delete accommodation")
	}
	s.cfg.Log.Info("Accommodation deleted successfully", "id", id)
	return nil
}

func mergeUpdate(existing *model.Accommodation, update *model.AccommodationUpdate) *model.Accommodation {
	merged := *existing
	if update.Type != "" {
		merged.Type = update.Type
	}
	if update.Location != "" {
		merged.Location = update.Location
	}
	if update.Size != "" {
		merged.Size = update.Size
	}
	if update.Amenities != nil {
		merged.Amenities = *update.Amenities
	}
	if update.DailyRate != nil {
		merged.DailyRate = *update.DailyRate
	}
	if update.Availability != nil {
		merged.Availability = *update.Availability
	}
	return &merged
}

func (s *accommodationService) sanitize(acc *model.Accommodation) {
	acc.Type = model.AccommodationType(sanitizer.NormalizeEnum(string(acc.Type)))
	acc.Location = sanitizer.NormalizeLocation(acc.Location)
	acc.Size = sanitizer.NormalizeSize(acc.Size)
	acc.Amenities = sanitizer.NormalizeAmenities(acc.Amenities)
}

func (s *accommodationService) translateRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, accommodationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Accommodation", id)
	case errors.Is(err, accommodationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid accommodation ID format")
	default:
		s.cfg.Log.Error(message, "id", id, "error", err)
		return apperrors.Internal(message, err)
	}
}
