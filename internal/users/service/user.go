package service

import (
	"context"
	"errors"
	"time"

	userserrors "ebooking/internal/users/errors"
	"ebooking/internal/users/repository"
	"ebooking/internal/users/validator"
	"ebooking/pkg/clock"
	"ebooking/pkg/config"
	apperrors "ebooking/pkg/errors"
	"ebooking/pkg/model"
	"ebooking/pkg/sanitizer"

	"golang.org/x/crypto/bcrypt"
)

const (
	invalidCredentials = "Invalid email or password"
	passwordUpdated    = "Your password has been updated"
)

type UserService interface {
	Register(ctx context.Context, req *model.UserRegistration) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetMe(ctx context.Context, p model.Principal) (*model.User, error)
	UpdateMe(ctx context.Context, p model.Principal, update *model.UserUpdate) (*model.User, error)
	UpdatePassword(ctx context.Context, p model.Principal, update *model.PasswordUpdate) (string, error)
	UpdateRole(ctx context.Context, id string, update *model.RoleUpdate) (*model.User, error)
}

// TokenIssuer signs access tokens for a principal.
type TokenIssuer interface {
	Issue(p model.Principal, ttl time.Duration) (string, error)
}

type Dependencies struct {
	Repo      repository.UserRepository
	Tokens    TokenIssuer
	Validator *validator.UserValidator
	Clock     clock.Clock
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

type userService struct {
	repo      repository.UserRepository
	tokens    TokenIssuer
	validator *validator.UserValidator
	clock     clock.Clock
	hashCost  int
	cfg       *config.Config
}

func NewUserService(deps Dependencies, cfg *config.Config) UserService {
	if deps.Validator == nil {
		deps.Validator = validator.NewUserValidator()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.HashCost == 0 {
		deps.HashCost = bcrypt.DefaultCost
	}
	return &userService{
		repo:      deps.Repo,
		tokens:    deps.Tokens,
		validator: deps.Validator,
		clock:     deps.Clock,
		hashCost:  deps.HashCost,
		cfg:       cfg,
	}
}

// Register creates a USER account. Admins are promoted through UpdateRole.
func (s *userService) Register(ctx context.Context, req *model.UserRegistration) (*model.User, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.FirstName = sanitizer.NormalizeName(req.FirstName)
	req.LastName = sanitizer.NormalizeName(req.LastName)
	if err := s.validator.ValidateRegistration(req); err != nil {
		return nil, apperrors.Validation("Registration validation failed", map[string]any{"error": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered", "id", user.ID)
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, apperrors.Validation("Login validation failed", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.cfg.Log.Warn("Login rejected", "user_id", user.ID)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	token, err := s.tokens.Issue(user.Principal(), s.cfg.JWTTokenTTL)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &model.LoginResponse{
		Token:     token,
		ExpiresAt: s.clock.Now().Add(s.cfg.JWTTokenTTL).UTC(),
	}, nil
}

func (s *userService) GetMe(ctx context.Context, p model.Principal) (*model.User, error) {
	return s.find(ctx, p.UserID)
}

func (s *userService) UpdateMe(ctx context.Context, p model.Principal, update *model.UserUpdate) (*model.User, error) {
	update.Email = sanitizer.NormalizeEmail(update.Email)
	update.FirstName = sanitizer.NormalizeName(update.FirstName)
	update.LastName = sanitizer.NormalizeName(update.LastName)
	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.UpdateProfile(ctx, p.UserID, update); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		return nil, s.translateRepoError(err, p.UserID, "Failed to update user")
	}

	s.cfg.Log.Info("User profile updated", "id", p.UserID)
	return s.find(ctx, p.UserID)
}

func (s *userService) UpdatePassword(ctx context.Context, p model.Principal, update *model.PasswordUpdate) (string, error) {
	if err := s.validator.ValidatePassword(update); err != nil {
		return "", apperrors.Validation("Invalid password", map[string]any{"error": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(update.Password), s.hashCost)
	if err != nil {
		return "", apperrors.Internal("Failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, p.UserID, string(hash)); err != nil {
		return "", s.translateRepoError(err, p.UserID, "Failed to update password")
	}

	s.cfg.Log.Info("User password updated", "id", p.UserID)
	return passwordUpdated, nil
}

func (s *userService) UpdateRole(ctx context.Context, id string, update *model.RoleUpdate) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	update.Role = model.Role(sanitizer.NormalizeEnum(string(update.Role)))
	if err := s.validator.ValidateRole(update); err != nil {
		return nil, apperrors.Validation("Invalid role", map[string]any{"error": err.Error()})
	}

	if err := s.repo.UpdateRole(ctx, id, update.Role); err != nil {
		return nil, s.translateRepoError(err, id, "Failed to update role")
	}

	s.cfg.Log.Info("User role updated", "id", id, "role", update.Role)
	return s.find(ctx, id)
}

func (s *userService) find(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve user")
	}
	return user, nil
}

func (s *userService) translateRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, userserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	default:
		s.cfg.Log.Error(message, "id", id, "error", err)
		return apperrors.Internal(message, err)
	}
}
