package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"roomfit/internal/gateway"
	"roomfit/internal/log"
	"roomfit/internal/services"
)

type AuthHandler struct {
	Auth     *services.AuthService
	Profiles *services.ProfileService
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	FullName string `json:"full_name" form:"full_name"`
}

func setSessionCookie(c *fiber.Ctx, s *services.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    s.AccessToken,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
		Expires:  s.ExpiresAt,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	s, err := h.Auth.SignUp(c.UserContext(), in.Email, in.Password, in.FullName)
	if err != nil {
		return fail(c, "auth.signup.fail", err)
	}
	setSessionCookie(c, s)
	c.Status(fiber.StatusCreated)
	log.Audit(c, "auth.signup.success", map[string]any{"user": s.User.ID})
	return c.JSON(s)
}

// POST /api/v1/auth/login
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	s, err := h.Auth.SignIn(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return fail(c, "auth.login.fail", err)
	}
	setSessionCookie(c, s)
	log.Audit(c, "auth.login.success", map[string]any{"user": s.User.ID})
	return c.JSON(s)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if tok := accessToken(c); tok != "" {
		if err := h.Auth.SignOut(c.UserContext(), tok); err != nil && !errors.Is(err, gateway.ErrNotConfigured) {
			log.Error(c, "auth.logout.fail", err, nil)
		}
	}
	clearSessionCookie(c)
	log.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var in struct {
		RefreshToken string `json:"refresh_token" form:"refresh_token"`
	}
	if err := c.BodyParser(&in); err != nil || in.RefreshToken == "" {
		return badRequest(c, "refresh_token", "missing refresh token")
	}
	s, err := h.Auth.Refresh(c.UserContext(), in.RefreshToken)
	if err != nil {
		return fail(c, "auth.refresh.fail", err)
	}
	setSessionCookie(c, s)
	return c.JSON(s)
}

// GET /api/v1/auth/session
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	u := currentUser(c, h.Auth)
	if u == nil {
		return deny(c, fiber.StatusUnauthorized, services.ErrInvalidToken.Error())
	}
	out := fiber.Map{"user": u}
	if p, err := h.Profiles.Get(c.UserContext(), u.ID); err == nil {
		out["profile"] = p
	}
	return c.JSON(out)
}

// POST /api/v1/auth/forgot
func (h *AuthHandler) Forgot(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	if err := h.Auth.RequestPasswordReset(c.UserContext(), in.Email); err != nil {
		return fail(c, "auth.reset.request.fail", err)
	}
	log.Audit(c, "auth.reset.requested", nil)
	return c.JSON(fiber.Map{"ok": true, "message": "If an account exists for that email, a reset link is on its way."})
}

// POST /api/v1/auth/password
func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	if err := h.Auth.UpdatePassword(c.UserContext(), userID(c), in.Password); err != nil {
		return fail(c, "auth.password.fail", err)
	}
	log.Audit(c, "auth.password.updated", nil)
	return c.JSON(fiber.Map{"ok": true})
}

// ---------- HTML ----------

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	s, err := h.Auth.SignIn(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		msg := "Invalid email or password"
		code := fiber.StatusUnauthorized
		if errors.Is(err, gateway.ErrNotConfigured) {
			msg, code = "Sign in is unavailable right now.", fiber.StatusServiceUnavailable
		}
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		c.Status(code)
		return render(c, "login", fiber.Map{"Err": msg})
	}
	setSessionCookie(c, s)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if tok := accessToken(c); tok != "" {
		_ = h.Auth.SignOut(c.UserContext(), tok)
	}
	clearSessionCookie(c)
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}

// GET /reset?access_token=..&refresh_token=.. is the emailed deep link.
func (h *AuthHandler) ResetForm(c *fiber.Ctx) error {
	access, refresh := c.Query("access_token"), c.Query("refresh_token")
	if access == "" || refresh == "" {
		if currentUser(c, h.Auth) != nil {
			return render(c, "reset", fiber.Map{"Err": ""})
		}
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": services.ErrResetLinkUsed.Error()})
	}
	s, err := h.Auth.ConsumeResetLink(c.UserContext(), access, refresh)
	if err != nil {
		log.Security(c, "auth.reset.link.fail", map[string]any{"reason": err.Error()})
		return c.Status(statusFor(err)).Render("notfound", fiber.Map{"Message": services.ErrResetLinkUsed.Error()})
	}
	setSessionCookie(c, s)
	c.Locals("user", s.User)
	log.Audit(c, "auth.reset.link.used", map[string]any{"user": s.User.ID})
	return render(c, "reset", fiber.Map{"Err": ""})
}

// POST /reset
func (h *AuthHandler) Reset(c *fiber.Ctx) error {
	if err := h.Auth.UpdatePassword(c.UserContext(), userID(c), c.FormValue("password")); err != nil {
		log.Security(c, "auth.reset.fail", map[string]any{"reason": err.Error()})
		c.Status(statusFor(err))
		return render(c, "reset", fiber.Map{"Err": err.Error()})
	}
	log.Audit(c, "auth.reset.success", nil)
	return c.Redirect("/")
}
