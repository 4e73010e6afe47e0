package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workspace-service/internal/auth"
	"github.com/spec-kit/workspace-service/internal/config"
	"github.com/spec-kit/workspace-service/internal/domain"
	"github.com/spec-kit/workspace-service/internal/events"
	"github.com/spec-kit/workspace-service/internal/repository"
	apperrors "github.com/spec-kit/workspace-service/pkg/util"
)

// Login failures must not reveal whether the email exists, so both
// paths share one message.
const invalidCredentialsMsg = "invalid email or password"

// TokenPair bundles the credentials issued on register, login, and
// refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthService coordinates registration, login, and the session token
// lifecycle against the credential store.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users: deps.UserRepo,
		tokenMgr: auth.NewTokenManager(
			cfg.Auth.AccessTokenSecret,
			cfg.Auth.RefreshTokenSecret,
			cfg.Auth.AccessTokenTTLMinutes,
			cfg.Auth.RefreshTokenTTLDays,
		),
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// RegisterInput carries the raw registration fields before
// normalization.
type RegisterInput struct {
	UserName string
	FullName string
	Email    string
	Password string
}

// Register creates a new account and starts its first session. The
// returned user carries no credential fields.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, TokenPair, error) {
	userName := strings.TrimSpace(in.UserName)
	fullName := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if userName == "" {
		return nil, TokenPair{}, apperrors.NewBadRequest("userName is required")
	}
	if fullName == "" {
		return nil, TokenPair{}, apperrors.NewBadRequest("fullName is required")
	}
	if email == "" {
		return nil, TokenPair{}, apperrors.NewBadRequest("email is required")
	}
	if !validEmail(email) {
		return nil, TokenPair{}, apperrors.NewBadRequest("email is invalid")
	}
	if in.Password == "" {
		return nil, TokenPair{}, apperrors.NewBadRequest("password is required")
	}

	// Email precedence: when one existing record collides on both
	// fields, the email conflict wins.
	existing, err := s.users.FindByEmailOrUserName(ctx, email, userName)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if existing != nil {
		if existing.Email == email {
			return nil, TokenPair{}, apperrors.NewConflict("email already in use")
		}
		if existing.UserName == userName {
			return nil, TokenPair{}, apperrors.NewConflict("userName already taken")
		}
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, TokenPair{}, err
	}

	user := &domain.User{
		UserName:     userName,
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique indexes close the check-then-insert race.
		switch err {
		case repository.ErrDuplicateEmail:
			return nil, TokenPair{}, apperrors.NewConflict("email already in use")
		case repository.ErrDuplicateUserName:
			return nil, TokenPair{}, apperrors.NewConflict("userName already taken")
		}
		return nil, TokenPair{}, err
	}

	pair, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		UserName: user.UserName,
		Email:    user.Email,
	})

	return user.Sanitized(), pair, nil
}

// Login authenticates by email and password and rotates the stored
// refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" {
		return nil, TokenPair{}, apperrors.NewBadRequest("email is required")
	}
	if !validEmail(email) {
		return nil, TokenPair{}, apperrors.NewBadRequest("email is invalid")
	}
	if password == "" {
		return nil, TokenPair{}, apperrors.NewBadRequest("password is required")
	}

	user, err := s.users.GetByEmailWithSecret(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, TokenPair{}, apperrors.NewUnauthorized(invalidCredentialsMsg)
		}
		return nil, TokenPair{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, apperrors.NewUnauthorized(invalidCredentialsMsg)
	}

	pair, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.publish(ctx, events.EventUserLoggedIn, user.ID, nil)

	return user.Sanitized(), pair, nil
}

// Logout clears the stored refresh token. Repeated calls are no-ops.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, nil); err != nil && err != pgx.ErrNoRows {
		return err
	}
	return nil
}

// ChangePassword verifies the old password before replacing the hash.
// The stored refresh token is cleared alongside, forcing re-login.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	if oldPassword == "" {
		return apperrors.NewBadRequest("oldPassword is required")
	}
	if newPassword == "" {
		return apperrors.NewBadRequest("newPassword is required")
	}
	if confirmPassword == "" {
		return apperrors.NewBadRequest("confirmPassword is required")
	}

	user, err := s.users.GetByIDWithSecret(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user not found")
		}
		return err
	}

	if err := auth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return apperrors.NewUnauthorized("incorrect old password")
	}
	if newPassword != confirmPassword {
		return apperrors.NewBadRequest("passwords do not match")
	}
	if oldPassword == newPassword {
		return apperrors.NewBadRequest("new password must be different")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, userID, hash); err != nil {
		return err
	}

	s.publish(ctx, events.EventPasswordChanged, userID, events.PasswordChangedPayload{Email: user.Email})

	return nil
}

// Refresh exchanges a valid refresh token for a fresh pair, rotating
// the stored slot. A token that no longer matches the slot (superseded
// by a newer login or cleared) is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, apperrors.NewUnauthorized("missing refresh token")
	}

	userID, err := s.tokenMgr.VerifyRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.GetByIDWithSecret(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
		}
		return TokenPair{}, err
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
	}

	return s.startSession(ctx, user.ID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// startSession issues a fresh token pair and overwrites the refresh
// slot, revoking whatever token was stored before (last write wins).
func (s *AuthService) startSession(ctx context.Context, userID string) (TokenPair, error) {
	access, accessExp, err := s.tokenMgr.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.tokenMgr.IssueRefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, userID, &refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
