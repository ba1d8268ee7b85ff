package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/domain"
	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

const actorKey = "auth_actor"

// AuthMiddleware validates bearer tokens and stores the caller's actor context.
type AuthMiddleware struct {
	tokens     *TokenManager
	adminRoles map[string]struct{}
}

// NewAuthMiddleware constructs middleware. Tokens carrying any of adminRoles
// are granted the admin role.
func NewAuthMiddleware(tokens *TokenManager, adminRoles []string) *AuthMiddleware {
	set := make(map[string]struct{}, len(adminRoles))
	for _, r := range adminRoles {
		set[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return &AuthMiddleware{tokens: tokens, adminRoles: set}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
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

	c.Locals(actorKey, m.ActorFromClaims(claims))
	return c.Next()
}

// ActorFromClaims maps token claims to an actor context.
func (m *AuthMiddleware) ActorFromClaims(claims *Claims) domain.ActorContext {
	roles := make([]domain.Role, 0, len(claims.Roles)+1)
	admin := false
	for _, raw := range claims.Roles {
		role := strings.ToLower(strings.TrimSpace(raw))
		if role == "" {
			continue
		}
		roles = append(roles, domain.Role(role))
		if _, ok := m.adminRoles[role]; ok {
			admin = true
		}
	}
	actor := domain.NewActor(claims.Email(), roles...)
	if admin && !actor.IsAdmin() {
		actor.Roles = append(actor.Roles, domain.RoleAdmin)
	}
	return actor
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (domain.ActorContext, bool) {
	actor, ok := c.Locals(actorKey).(domain.ActorContext)
	return actor, ok
}
