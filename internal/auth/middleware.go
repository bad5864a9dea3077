package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recognition-wall/internal/domain"
	"github.com/spec-kit/recognition-wall/internal/repository"
	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	userIDKey    = "user_id"
)

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// UserID returns the caller's id.
func (p *Principal) UserID() string {
	return p.User.ID
}

// IsAdmin reports whether the caller holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p.User.IsAdmin()
}

// AuthMiddleware validates bearer tokens and mirrors the identity locally.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	identity, err := claims.Identity()
	if err != nil {
		return apperrors.NewUnauthorized(err.Error())
	}

	user, err := m.mirror(c.UserContext(), identity)
	if err != nil {
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user})
	c.Locals(userIDKey, user.ID)
	return c.Next()
}

// mirror returns the local user for identity. The row is only written on
// first sight or when the identity-owned fields changed.
func (m *AuthMiddleware) mirror(ctx context.Context, identity *domain.User) (*domain.User, error) {
	existing, err := m.users.GetByID(ctx, identity.ID)
	switch {
	case err == nil:
		if existing.Email == identity.Email && existing.Role == identity.Role {
			return existing, nil
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return m.users.SyncIdentity(ctx, identity)
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil && principal.User != nil
}
