package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/auth"
	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/events"
	"github.com/spec-kit/reclamos-service/internal/repository"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	revoker    auth.Revoker
	limiter    auth.LoginLimiter
	bcryptCost int
	clock      domain.Clock
	logger     *zap.Logger
	publisher
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Revoker    auth.Revoker
	Limiter    auth.LoginLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      domain.Clock
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	logger := nopLogger(deps.Logger)
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokens,
		revoker:    deps.Revoker,
		limiter:    deps.Limiter,
		bcryptCost: cfg.BcryptCost,
		clock:      deps.Clock,
		logger:     logger,
		publisher:  publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// SignupInput carries the self-registration form.
type SignupInput struct {
	Email    string
	Password string
	Nombre   string
	Apellido string
	Telefono string
	Role     domain.UserRole
	Area     domain.Area
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a pending account.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	email := NormalizeEmail(input.Email)
	details := map[string]any{}
	if email == "" || !strings.Contains(email, "@") {
		details["email"] = "must be a valid email address"
	}
	if len(input.Password) < MinPasswordLength {
		details["password"] = "must be at least 6 characters"
	}
	if strings.TrimSpace(input.Nombre) == "" {
		details["nombre"] = "is required"
	}
	if !input.Role.Valid() {
		details["role"] = "is not a valid role"
	}
	switch {
	case input.Role == domain.RoleExterno && !input.Area.Valid():
		details["area"] = "is required for externo users"
	case input.Role != domain.RoleExterno && input.Area != "":
		details["area"] = "must be empty for this role"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid signup", details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Nombre:        strings.TrimSpace(input.Nombre),
		Apellido:      strings.TrimSpace(input.Apellido),
		Telefono:      strings.TrimSpace(input.Telefono),
		Email:         email,
		PasswordHash:  hash,
		Role:          input.Role,
		Area:          input.Area,
		AccountStatus: domain.AccountPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDomainError(apperrors.CodeEmailAlreadyRegistered, "email already registered", http.StatusBadRequest, map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		Actor:     events.ActorOf(user),
		Payload:   events.UserRegisteredPayload{Email: user.Email, Role: user.Role},
	})
	return user, nil
}

// Login authenticates by email and password. Accounts that are not active
// fail with ACCOUNT_NOT_ACTIVE carrying their status even when the password
// is right.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, *domain.User, error) {
	email = NormalizeEmail(email)

	if s.limiter != nil {
		allowed, err := s.limiter.Hit(ctx, email)
		if err != nil {
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, nil, apperrors.NewTooManyRequests("too many login attempts", map[string]any{"email": email})
		}
	}

	invalid := apperrors.NewDomainError(apperrors.CodeInvalidCredentials, "invalid credentials", http.StatusUnauthorized, nil)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, invalid
		}
		return nil, nil, apperrors.MapError(err)
	}
	ok, err := auth.PasswordMatches(user.PasswordHash, password)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	if !ok {
		return nil, nil, invalid
	}
	if !user.CanAuthenticate() {
		return nil, nil, apperrors.NewDomainError(apperrors.CodeAccountNotActive, "account not active", http.StatusForbidden, map[string]any{
			"accountStatus": user.AccountStatus,
		})
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("reset login attempts", zap.Error(err))
		}
	}

	session, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return session, user, nil
}

// Logout revokes the caller's token for its remaining lifetime. It never
// fails; guests and revocation outages are logged only.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) {
	if principal == nil || principal.IsGuest() || principal.TokenID == "" || s.revoker == nil {
		return
	}
	ttl := principal.ExpiresAt.Sub(s.clock.Now())
	if err := s.revoker.Revoke(ctx, principal.TokenID, ttl); err != nil {
		s.logger.Warn("revoke token", zap.String("user_id", principal.User.ID), zap.Error(err))
	}
}

// SeedModerator ensures the configured bootstrap moderator exists. An empty
// seed email disables seeding.
func (s *AuthService) SeedModerator(ctx context.Context, seed config.SeedUserConfig) (*domain.User, error) {
	email := NormalizeEmail(seed.Email)
	if email == "" {
		return nil, nil
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if len(seed.Password) < MinPasswordLength {
		return nil, errors.New("seed moderator password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(seed.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	confirmed := s.clock.Now().UTC()
	user := &domain.User{
		Nombre:           seed.Nombre,
		Apellido:         seed.Apellido,
		Telefono:         seed.Telefono,
		Email:            email,
		PasswordHash:     hash,
		Role:             domain.RoleModerador,
		AccountStatus:    domain.AccountActive,
		EmailConfirmedAt: &confirmed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("seeded moderator", zap.String("email", email))
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
