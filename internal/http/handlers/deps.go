package handlers

import (
	"context"
	"time"

	"roomfit/internal/analyzer"
	"roomfit/internal/ar"
	"roomfit/internal/cart"
	"roomfit/internal/config"
	"roomfit/internal/gateway"
	applog "roomfit/internal/log"
	"roomfit/internal/registry"
	"roomfit/internal/services"
)

// Backends are the collaborators the root composition builds. Nil fields
// get a working default derived from cfg.
type Backends struct {
	Gateway    gateway.Gateway
	Auth       *services.AuthService
	AR         *ar.Engine
	Analyzer   *analyzer.Analyzer
	CartMirror cart.Mirror
	Models     ModelUploader
}

type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
	Cart    *cart.Store

	AuthHandler     *AuthHandler
	ProductHandler  *ProductHandler
	AdminHandler    *AdminHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	ProfileHandler  *ProfileHandler
	ARHandler       *ARHandler
	AnalyzerHandler *AnalyzerHandler

	stop context.CancelFunc
}

// Close stops the session expiry loops.
func (d *Deps) Close() {
	if d.stop != nil {
		d.stop()
	}
}

// sweepEvery is how often idle sessions are looked for.
func sweepEvery(idle time.Duration) time.Duration {
	if every := idle / 4; every > time.Second {
		return every
	}
	return time.Second
}

func closeAnalysis(id string, s *analyzer.Session) {
	s.Close()
	applog.Event("analysis.session.expired", map[string]any{"session": id})
}

func NewDeps(b Backends, cfg config.Config) *Deps {
	gw := b.Gateway
	auth := b.Auth
	if auth == nil {
		auth = services.NewAuthService(gw.Users, cfg.JWTSecret, cfg.ResetRedirectURL, nil)
	}
	engine := b.AR
	if engine == nil {
		engine = ar.NewEngine(ar.ModelResolver{Fallback: cfg.FallbackModelURL}, ar.NewLibrary(cfg.ModelViewerSrc))
	}
	an := b.Analyzer
	if an == nil {
		an = analyzer.New(nil, nil, cfg.AnalyzeTimeout)
	}

	store := cart.NewStore(gw.Carts, gw.Inventory, b.CartMirror)
	auth.Subscribe(func(ev services.AuthEvent) {
		if ev.Type != services.EventSignedOut {
			return
		}
		if err := store.Forget(ev.UserID); err != nil {
			applog.Fail("cart.mirror.forget", err, map[string]any{"user": ev.UserID})
		}
	})

	engine.LimitSessions(cfg.MaxSessions)
	analyses := registry.New[*analyzer.Session]()
	analyses.SetLimit(cfg.MaxSessions)

	ctx, stop := context.WithCancel(context.Background())
	if cfg.SessionIdle > 0 {
		every := sweepEvery(cfg.SessionIdle)
		go engine.Expire(ctx, every, cfg.SessionIdle)
		go analyses.Expire(ctx, every, cfg.SessionIdle, closeAnalysis)
	}

	catalogSvc := services.NewCatalogService(gw.Products, gw.Profiles)
	profileSvc := services.NewProfileService(gw.Profiles)
	orderSvc := services.NewOrderService(store, gw.Orders)

	return &Deps{
		Auth:    auth,
		Catalog: catalogSvc,
		Cart:    store,

		AuthHandler:     &AuthHandler{Auth: auth, Profiles: profileSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Stock: gw.Inventory, AR: engine},
		AdminHandler:    &AdminHandler{Catalog: catalogSvc, Models: b.Models},
		CartHandler:     &CartHandler{Cart: store, Catalog: catalogSvc},
		OrderHandler:    &OrderHandler{Orders: orderSvc},
		ProfileHandler:  &ProfileHandler{Profiles: profileSvc},
		ARHandler:       &ARHandler{Engine: engine, Catalog: catalogSvc},
		AnalyzerHandler: &AnalyzerHandler{Analyzer: an, Catalog: catalogSvc, Sessions: analyses},

		stop: stop,
	}
}
