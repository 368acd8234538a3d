package main

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"roomfit/internal/analyzer"
	"roomfit/internal/ar"
	"roomfit/internal/cart"
	"roomfit/internal/config"
	"roomfit/internal/gateway"
	"roomfit/internal/http/handlers"
	applog "roomfit/internal/log"
	"roomfit/internal/repos"
	"roomfit/internal/services"
	"roomfit/internal/storage"
)

func main() {
	cfg := config.Load()
	applog.Setup(cfg.LogFile)
	ctx := context.Background()

	// Backend: without a DSN every read is empty and every write reports
	// "backend not configured".
	gw := gateway.NewStub()
	if cfg.DBDSN != "" {
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		gw = repos.NewGateway(db)
	}

	var mirror cart.Mirror = cart.NewMemMirror()
	if cfg.CartMirrorPath != "" {
		bm, err := cart.OpenBoltMirror(cfg.CartMirrorPath)
		if err != nil {
			log.Fatal(err)
		}
		mirror = bm
	}
	defer mirror.Close()

	resolver := ar.ModelResolver{Fallback: cfg.FallbackModelURL}
	var models handlers.ModelUploader
	if cfg.AssetBucket != "" {
		assets, err := storage.NewAssets(ctx, cfg.AWSRegion, cfg.AssetBucket)
		if err != nil {
			log.Printf("[warn] asset bucket unavailable: %v", err)
		} else {
			resolver.Signer = assets
			models = assets
		}
	}

	an := analyzer.New(nil, nil, cfg.AnalyzeTimeout)
	if cfg.GeminiAPIKey != "" {
		g, err := analyzer.NewGemini(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("[warn] gemini client unavailable: %v", err)
		} else {
			defer g.Close()
			an = analyzer.New(g.Model(cfg.GeminiModel), g.Model(cfg.GeminiColorModel), cfg.AnalyzeTimeout)
		}
	} else {
		log.Println("[warn] GEMINI_API_KEY not set; space analysis returns the fallback result")
	}

	var mailer services.Mailer = services.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}
	authSvc := services.NewAuthService(gw.Users, cfg.JWTSecret, cfg.ResetRedirectURL, mailer)

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Server().MaxRequestBodySize = analyzer.MaxRequestBytes

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	// model-viewer pulls its script from a CDN and models from the bucket.
	app.Use(helmet.New(helmet.Config{CrossOriginEmbedderPolicy: "unsafe-none"}))
	app.Use(handlers.Attach(authSvc))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	// Forms only; the JSON API authenticates with bearer tokens.
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	staticDir := cfg.MediaDir
	if !filepath.IsAbs(staticDir) {
		if abs, err := filepath.Abs(staticDir); err == nil {
			staticDir = abs
		}
	}
	log.Printf("[static] /static -> %s", staticDir)
	app.Static("/static", staticDir)

	// ---------- App handlers ----------
	deps := handlers.NewDeps(handlers.Backends{
		Gateway:    gw,
		Auth:       authSvc,
		AR:         ar.NewEngine(resolver, ar.NewLibrary(cfg.ModelViewerSrc)),
		Analyzer:   an,
		CartMirror: mirror,
		Models:     models,
	}, cfg)
	defer deps.Close()
	handlers.Routes(app, deps)

	log.Fatal(app.Listen(":" + cfg.Port))
}
