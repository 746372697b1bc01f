package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/domain"
	"github.com/spec-kit/reclamos-service/internal/repository"
	apperrors "github.com/spec-kit/reclamos-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the caller. Guests carry the sentinel user and no token.
type Principal struct {
	User        *domain.User
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
}

// Role returns the caller's role.
func (p *Principal) Role() domain.UserRole {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Role
}

// IsGuest reports whether the caller is anonymous.
func (p *Principal) IsGuest() bool {
	return p == nil || p.User == nil || p.User.IsGuest()
}

// GuestPrincipal returns the anonymous caller.
func GuestPrincipal() *Principal {
	return &Principal{User: domain.NewGuest()}
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens  *TokenManager
	users   repository.UserRepository
	revoker Revoker
	logger  *zap.Logger
}

// NewAuthMiddleware constructs middleware. revoker may be nil.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, revoker Revoker, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, users: users, revoker: revoker, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	principal, err := m.Authenticate(c, token)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Optional resolves a principal when a valid bearer token is present and
// falls back to the guest identity otherwise.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	principal := GuestPrincipal()
	if token, err := bearerToken(c); err == nil {
		if resolved, err := m.Authenticate(c, token); err == nil {
			principal = resolved
		}
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Authenticate resolves a raw bearer token into an active principal.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx, token string) (*Principal, error) {
	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			m.logger.Warn("revocation lookup failed", zap.Error(err))
		} else if revoked {
			return nil, apperrors.NewUnauthorized("token revoked")
		}
	}

	user, err := m.users.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.CanAuthenticate() {
		return nil, apperrors.NewUnauthorized("account not active")
	}

	principal := &Principal{User: user, AccessToken: token, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
