package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"roomfit/internal/domain"
	applog "roomfit/internal/log"
	"roomfit/internal/services"
)

const sessionCookie = "access_token"

// accessToken reads a bearer header first, then the session cookie.
func accessToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Cookies(sessionCookie)
}

func currentUser(c *fiber.Ctx, auth *services.AuthService) *domain.User {
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		return u
	}
	tok := accessToken(c)
	if tok == "" {
		return nil
	}
	u, _, err := auth.GetSession(c.UserContext(), tok)
	if err != nil || u == nil {
		return nil
	}
	c.Locals("user", u)
	return u
}

// Attach puts the signed-in user, if any, into locals for templates and logs.
func Attach(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		currentUser(c, auth)
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c, auth) == nil {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService, catalog *services.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c, auth)
		if u == nil {
			return c.Redirect("/login")
		}
		ok, err := catalog.IsAdmin(c.UserContext(), u.ID)
		if err != nil || !ok {
			applog.Security(c, "access.denied.admin", map[string]any{"user": u.ID})
			return deny(c, fiber.StatusForbidden, services.ErrNotAdmin.Error())
		}
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		return u.ID
	}
	return ""
}
