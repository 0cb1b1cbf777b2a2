package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Jawa090/Rush-Management-system-sub000/internal/audit"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/dto"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/middleware"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/service"
	autherror "github.com/Jawa090/Rush-Management-system-sub000/internal/errors"
	"github.com/Jawa090/Rush-Management-system-sub000/internal/ratelimit"
	"github.com/Jawa090/Rush-Management-system-sub000/pkg/constant"
)

type AuthHandler struct {
	userService *service.UserService
	limiter     *ratelimit.Limiter
	auditor     audit.Recorder
	production  bool
	refreshTTL  time.Duration
}

func NewAuthHandler(userService *service.UserService, limiter *ratelimit.Limiter, auditor audit.Recorder, env string, refreshTTL time.Duration) *AuthHandler {
	if auditor == nil {
		auditor = audit.Nop{}
	}

	return &AuthHandler{
		userService: userService,
		limiter:     limiter,
		auditor:     auditor,
		production:  env == constant.EnvProduction,
		refreshTTL:  refreshTTL,
	}
}

// fail writes the stable error shape. Unrecognized internal errors are
// never surfaced verbatim; they become a generic 500.
func fail(c *fiber.Ctx, err error) error {
	var authErr *autherror.Error
	if errors.As(err, &authErr) {
		return c.Status(authErr.Status).JSON(fiber.Map{
			"success": false,
			"error":   authErr.Message,
			"code":    authErr.Code,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal server error",
		"code":    "INTERNAL_ERROR",
	})
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "invalid input",
		"code":    "INVALID_INPUT",
	})
}

// rateLimited consumes one limiter attempt for the client address and,
// when over budget, writes the 429 response. The attempt is counted
// before any downstream I/O so hanging store calls still burn budget.
func (h *AuthHandler) rateLimited(c *fiber.Ctx) (bool, error) {
	if h.limiter == nil {
		return false, nil
	}

	ok, retryAfter := h.limiter.Allow(c.IP())
	if ok {
		return false, nil
	}

	h.auditor.Record(c.Context(), audit.Event{
		Action:    audit.ActionRateLimited,
		Code:      autherror.ErrRateLimitExceeded.Code,
		IPAddress: c.IP(),
		Path:      c.Path(),
		Method:    c.Method(),
	})

	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	e := autherror.ErrRateLimitExceeded

	return true, c.Status(e.Status).JSON(fiber.Map{
		"success":    false,
		"error":      e.Message,
		"code":       e.Code,
		"retryAfter": seconds,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.Email == "" || input.Password == "" {
		return badRequest(c)
	}

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    dto.NewUserOutput(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if limited, err := h.rateLimited(c); limited {
		return err
	}

	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	input.IPAddress = c.IP()

	out, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	if h.production {
		h.setRefreshCookie(c, out.RefreshToken, input.RememberMe)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":      true,
		"user":         out.User,
		"accessToken":  out.AccessToken,
		"refreshToken": out.RefreshToken,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	if limited, err := h.rateLimited(c); limited {
		return err
	}

	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return badRequest(c)
	}
	// Production clients may carry the refresh token in an httpOnly
	// cookie instead of the body.
	if input.RefreshToken == "" {
		input.RefreshToken = c.Cookies(constant.RefreshCookieName)
	}
	if input.RefreshToken == "" {
		return fail(c, autherror.ErrInvalidRefreshToken)
	}
	input.IPAddress = c.IP()

	out, err := h.userService.Refresh(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	if h.production {
		h.setRefreshCookie(c, out.RefreshToken, true)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":      true,
		"accessToken":  out.AccessToken,
		"refreshToken": out.RefreshToken,
	})
}

// Logout always reports success: whatever happens internally, the client
// must be able to discard its local session state.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	_ = c.BodyParser(&input)
	if input.RefreshToken == "" {
		input.RefreshToken = c.Cookies(constant.RefreshCookieName)
	}

	h.userService.Logout(c.Context(), input.RefreshToken)

	if h.production {
		h.clearRefreshCookie(c)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	identity := middleware.IdentityFromCtx(c)
	if identity == nil {
		return fail(c, autherror.ErrNotAuthenticated)
	}

	if err := h.userService.LogoutAll(c.Context(), identity.UserID); err != nil {
		return fail(c, err)
	}

	if h.production {
		h.clearRefreshCookie(c)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	identity := middleware.IdentityFromCtx(c)
	if identity == nil {
		return fail(c, autherror.ErrNotAuthenticated)
	}

	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return badRequest(c)
	}

	if err := h.userService.ChangePassword(c.Context(), identity.UserID, input); err != nil {
		return fail(c, err)
	}

	if h.production {
		h.clearRefreshCookie(c)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, token string, persistent bool) {
	cookie := &fiber.Cookie{
		Name:     constant.RefreshCookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	}
	if persistent {
		cookie.Expires = time.Now().Add(h.refreshTTL)
	}
	c.Cookie(cookie)
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     constant.RefreshCookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
	})
}
