// Package middleware authenticates incoming requests: bearer extraction,
// token verification, and a mandatory re-fetch of the subject so that a
// deactivated account loses access on its very next request, not at
// token expiry.
package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Jawa090/Rush-Management-system-sub000/internal/audit"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/domain"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/service"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/authz"
	autherror "github.com/Jawa090/Rush-Management-system-sub000/internal/errors"
)

// identityKey is the c.Locals key holding the request's *domain.Identity.
const identityKey = "identity"

// Mode selects how a route treats an absent token.
type Mode int

const (
	// Required rejects requests without a valid token.
	Required Mode = iota
	// Optional passes anonymous requests through with no identity; a
	// token, when present, must still be valid.
	Optional
)

type Authenticator struct {
	tokens  service.TokenGenerator
	repo    domain.UserRepository
	auditor audit.Recorder
}

func NewAuthenticator(tokens service.TokenGenerator, repo domain.UserRepository, auditor audit.Recorder) *Authenticator {
	if auditor == nil {
		auditor = audit.Nop{}
	}

	return &Authenticator{tokens: tokens, repo: repo, auditor: auditor}
}

// Handler returns the fiber middleware for the given mode.
func (a *Authenticator) Handler(mode Mode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := service.ExtractBearer(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			if mode == Optional {
				return c.Next()
			}
			return a.reject(c, autherror.ErrMissingToken)
		}

		claims, err := a.tokens.VerifyAccessToken(token)
		if err != nil {
			var authErr *autherror.Error
			if !errors.As(err, &authErr) {
				authErr = autherror.ErrTokenInvalid
			}
			return a.reject(c, authErr)
		}

		// Never trust stale claims for active-status; the account may have
		// been deactivated after the token was issued.
		user, err := a.repo.GetByID(c.Context(), claims.UserID)
		if err != nil {
			// Internal failures stay internal: log with context, answer with
			// the generic shape.
			log.Printf("auth: subject lookup failed for %s: %v", claims.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "internal server error",
				"code":    "INTERNAL_ERROR",
			})
		}
		if user == nil {
			return a.reject(c, autherror.ErrSubjectNotFound)
		}
		if !user.Active {
			return a.reject(c, autherror.ErrSubjectDeactivated)
		}

		c.Locals(identityKey, &domain.Identity{
			UserID:     user.ID,
			Email:      user.Email,
			Role:       user.Role,
			Department: user.Department,
		})

		return c.Next()
	}
}

// reject emits a security audit event holding the failure code, client
// address, path, and method, never the token value, then writes the
// failure response. An expired
// token additionally carries expired:true so the client knows to attempt
// a refresh rather than re-authenticate.
func (a *Authenticator) reject(c *fiber.Ctx, authErr *autherror.Error) error {
	a.auditor.Record(c.Context(), audit.Event{
		Action:    audit.ActionAuthRejected,
		Code:      authErr.Code,
		IPAddress: c.IP(),
		Path:      c.Path(),
		Method:    c.Method(),
	})

	body := fiber.Map{
		"success": false,
		"error":   authErr.Message,
		"code":    authErr.Code,
	}
	if errors.Is(authErr, autherror.ErrTokenExpired) {
		body["expired"] = true
	}

	return c.Status(authErr.Status).JSON(body)
}

// IdentityFromCtx returns the authenticated identity attached by
// Handler, or nil on anonymous requests.
func IdentityFromCtx(c *fiber.Ctx) *domain.Identity {
	identity, _ := c.Locals(identityKey).(*domain.Identity)
	return identity
}

// RequireRole guards a route group behind a minimum role. It must run
// after Handler(Required).
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := IdentityFromCtx(c)
		if identity == nil {
			e := autherror.ErrNotAuthenticated
			return c.Status(e.Status).JSON(fiber.Map{"success": false, "error": e.Message, "code": e.Code})
		}
		if !authz.HasRole(identity.Role, required) {
			e := autherror.ErrInsufficientPermissions
			return c.Status(e.Status).JSON(fiber.Map{"success": false, "error": e.Message, "code": e.Code})
		}

		return c.Next()
	}
}
