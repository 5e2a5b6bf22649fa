package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hrportal/attendance-service/internal/auth"
	"github.com/hrportal/attendance-service/internal/config"
	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/events"
	"github.com/hrportal/attendance-service/internal/repository"
	apperrors "github.com/hrportal/attendance-service/pkg/util"
)

// AuthService coordinates login, logout and password flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.ResetTokenStore
	revoked    repository.RevocationStore
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	resetURL   string
	now        Clock
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	ResetTokens  repository.ResetTokenStore
	Revocations  repository.RevocationStore
	TokenManager *auth.TokenManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Now          Clock
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokenMgr := deps.TokenManager
	if tokenMgr == nil {
		tokenMgr = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.ResetTokens,
		revoked:    deps.Revocations,
		tokenMgr:   tokenMgr,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		resetURL:   strings.TrimRight(cfg.Auth.PasswordResetURL, "/"),
		now:        clockOrDefault(deps.Now),
	}
}

// Login authenticates by email and password and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("Email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if user.IsDeleted {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Logout revokes the session token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || s.revoked == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.ID, s.tokenMgr.Remaining(claims))
}

// RequestPasswordReset stores a single-use token and mails the reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("Email is required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFound(err, "User")
	}
	if user.IsDeleted {
		return apperrors.NewNotFound("User", nil)
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	if err := s.resets.Save(ctx, token, user.ID, s.resetTTL); err != nil {
		return err
	}

	now := s.now()
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventPasswordResetRequested, user.ID,
		events.Actor{UserID: user.ID, Role: user.Role}, now,
		events.PasswordResetRequestedPayload{
			Email:     user.Email,
			FullName:  user.FullName(),
			ResetLink: s.resetURL + "/" + token,
			ExpiresAt: now.Add(s.resetTTL),
		}))
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewValidationError("Invalid or expired token", nil)
	}
	if len(password) < auth.MinPasswordLength {
		return apperrors.NewValidationError("Password is too short", map[string]any{"min_length": auth.MinPasswordLength})
	}

	userID, err := s.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("Invalid or expired token", nil)
		}
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("Invalid or expired token", nil)
		}
		return err
	}
	return s.setPassword(ctx, user, password)
}

// ChangePassword verifies the current password before replacing it.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return apperrors.NewValidationError("Password is too short", map[string]any{"min_length": auth.MinPasswordLength})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err, "User")
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("Current password is incorrect", nil)
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
