package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "roomfit/internal/log"
)

func jsonLimiter(max int, window time.Duration, action string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + action
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate."+action+".hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
}

// Routes mounts the JSON API and the HTML pages on app.
func Routes(app *fiber.App, d *Deps) {
	user := RequireUser(d.Auth)
	admin := RequireAdmin(d.Auth, d.Catalog)

	api := app.Group("/api/v1")

	// Auth (login throttled)
	api.Post("/auth/signup", jsonLimiter(10, 10*time.Minute, "signup"), d.AuthHandler.SignUp)
	api.Post("/auth/login", jsonLimiter(5, 10*time.Minute, "login"), d.AuthHandler.SignIn)
	api.Post("/auth/logout", d.AuthHandler.SignOut)
	api.Post("/auth/refresh", d.AuthHandler.Refresh)
	api.Get("/auth/session", d.AuthHandler.Session)
	api.Post("/auth/forgot", jsonLimiter(5, 10*time.Minute, "forgot"), d.AuthHandler.Forgot)
	api.Post("/auth/password", user, d.AuthHandler.UpdatePassword)

	// Catalog
	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/:id", d.ProductHandler.Detail)
	api.Get("/products/:id/availability", jsonLimiter(15, 30*time.Second, "availability"), d.ProductHandler.Availability)

	// Admin
	ag := api.Group("/admin", admin)
	ag.Get("/products", d.AdminHandler.Products)
	ag.Post("/products", d.AdminHandler.Create)
	ag.Put("/products/:id", d.AdminHandler.Update)
	ag.Delete("/products/:id", d.AdminHandler.Delete)
	ag.Post("/products/:id/model", d.AdminHandler.UploadModel)

	// Cart & orders
	api.Get("/cart", user, d.CartHandler.Get)
	api.Post("/cart", user, d.CartHandler.Add)
	api.Post("/cart/checkout", user, d.OrderHandler.Checkout)
	api.Patch("/cart/:id", user, d.CartHandler.Update)
	api.Post("/cart/:id/increment", user, d.CartHandler.Increment)
	api.Post("/cart/:id/decrement", user, d.CartHandler.Decrement)
	api.Delete("/cart/:id", user, d.CartHandler.Remove)
	api.Get("/orders", user, d.OrderHandler.History)

	api.Get("/profile", user, d.ProfileHandler.Get)
	api.Put("/profile", user, d.ProfileHandler.Update)

	// AR
	api.Post("/ar/sessions", jsonLimiter(20, time.Minute, "ar.launch"), d.ARHandler.Launch)
	api.Get("/ar/sessions/:id", d.ARHandler.State)
	api.Delete("/ar/sessions/:id", d.ARHandler.End)
	api.Post("/ar/sessions/:id/tracking", d.ARHandler.Tracking)
	api.Post("/ar/sessions/:id/plane", d.ARHandler.Plane)
	api.Post("/ar/sessions/:id/rotate", d.ARHandler.Rotate)
	api.Post("/ar/sessions/:id/scale", d.ARHandler.Scale)
	api.Post("/ar/sessions/:id/drag", d.ARHandler.Drag)
	api.Post("/ar/sessions/:id/load", d.ARHandler.Load)

	// Space analysis (model calls are slow and billed)
	analyze := jsonLimiter(10, time.Minute, "analyze")
	api.Post("/analysis/sessions", jsonLimiter(20, time.Minute, "analysis.open"), d.AnalyzerHandler.Open)
	api.Get("/analysis/sessions/:id", d.AnalyzerHandler.State)
	api.Post("/analysis/sessions/:id/image", jsonLimiter(10, time.Minute, "analysis.image"), d.AnalyzerHandler.SetImage)
	api.Post("/analysis/sessions/:id/analyze", analyze, d.AnalyzerHandler.Analyze)
	api.Delete("/analysis/sessions/:id/image", d.AnalyzerHandler.Discard)
	api.Delete("/analysis/sessions/:id", d.AnalyzerHandler.Close)
	api.Post("/analyze", analyze, d.AnalyzerHandler.AnalyzeOnce)
	api.Post("/analyze/colors", analyze, d.AnalyzerHandler.Colors)

	// Pages
	app.Get("/", d.ProductHandler.Home)
	app.Get("/cart", user, d.CartHandler.View)
	app.Get("/ar/web/:id", d.ARHandler.WebPage)

	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)
	app.Get("/reset", d.AuthHandler.ResetForm)
	app.Post("/reset", user, d.AuthHandler.Reset)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return deny(c, fiber.StatusNotFound, "Page not found")
	})
}
