package middleware

import (
	"context"
	"errors"
	"strings"

	"listinghub-backend/internal/domain"
	"listinghub-backend/internal/infrastructure/identity"
	"listinghub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const userLocal = "user"

// UserResolver maps a verified identity to a local user, creating it on first sight.
type UserResolver interface {
	EnsureUser(ctx context.Context, id identity.Identity) (*domain.User, error)
}

func bearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func resolve(c *fiber.Ctx, verifier identity.TokenVerifier, users UserResolver, token string) (*domain.Principal, error) {
	id, err := verifier.Verify(c.UserContext(), token)
	if err != nil {
		return nil, err
	}
	u, err := users.EnsureUser(c.UserContext(), *id)
	if err != nil {
		return nil, err
	}
	return &domain.Principal{UserID: u.UserID, ExternalUID: u.ExternalUID, Email: u.Email, IsAdmin: u.IsAdmin}, nil
}

// Authenticate verifies the bearer token and stores the caller's Principal in Locals("user").
func Authenticate(verifier identity.TokenVerifier, users UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return response.Unauthorized(c, "No token provided")
		}
		p, err := resolve(c, verifier, users, token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrTokenExpired) {
				return response.Unauthorized(c, "Invalid token")
			}
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Msg("auth: failed to resolve user")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
		c.Locals(userLocal, p)
		return c.Next()
	}
}

// OptionalAuth attaches a Principal when a valid token is present and never rejects.
func OptionalAuth(verifier identity.TokenVerifier, users UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			if p, err := resolve(c, verifier, users, token); err == nil {
				c.Locals(userLocal, p)
			}
		}
		return c.Next()
	}
}

// RequireAdmin must run after Authenticate and before any body parsing.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return response.Unauthorized(c, "No token provided")
		}
		if !p.IsAdmin {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// GetPrincipal returns the authenticated caller, or nil.
func GetPrincipal(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(userLocal).(*domain.Principal)
	return p
}
