package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Jawa090/Rush-Management-system-sub000/internal/auth/middleware"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, auth *middleware.Authenticator) {
	v1 := app.Group("/api/v1")

	v1.Post("/register", h.Register)
	v1.Post("/login", h.Login)
	v1.Post("/refresh", h.Refresh)

	// Logout is best-effort and must work even with a dead access token,
	// so authentication is optional here.
	v1.Post("/logout", auth.Handler(middleware.Optional), h.Logout)

	v1.Post("/logout-all", auth.Handler(middleware.Required), h.LogoutAll)
	v1.Post("/change-password", auth.Handler(middleware.Required), h.ChangePassword)
}
