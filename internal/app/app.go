// Package app is the ventas back office: clients, inventory, FEL invoices and delivery
// routes, served as server-rendered pages with htmx.
package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/form/v4"

	"github.com/jackielii/ventas/internal/config"
	"github.com/jackielii/ventas/internal/logfields"
	"github.com/jackielii/ventas/internal/metrics"
	"github.com/jackielii/ventas/internal/store"
	"github.com/jackielii/ventas/structpages"
	"github.com/jackielii/ventas/structpages/chirouter"
)

// Options are the dependencies of an App. Store is required; everything else has defaults.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// Metrics serves /metrics (or Config.Metrics.Path) when set.
	Metrics http.Handler
}

// App holds the services the pages are injected with.
type App struct {
	name     string
	locale   string
	store    *store.Store
	logger   *slog.Logger
	recorder metrics.Recorder
	hydrator *structpages.Hydrator
	sessions *scs.SessionManager
	decoder  *form.Decoder
	money    moneyFormatter
	markdown *markdownRenderer
	now      func() time.Time

	handler http.Handler
}

// New builds the App and mounts its pages.
func New(opts Options) (*App, error) {
	if opts.Store == nil {
		return nil, errors.New("app: store is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{
		name:     cfg.App.Name,
		locale:   cfg.App.Locale,
		store:    opts.Store,
		logger:   opts.Logger,
		recorder: opts.Recorder,
		money:    newMoneyFormatter(cfg.App.Locale),
		markdown: newMarkdownRenderer(),
		now:      time.Now,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.recorder == nil {
		a.recorder = metrics.NoopRecorder{}
	}
	a.hydrator = structpages.NewHydrator(
		structpages.WithMountPath(cfg.Hydration.MountPath),
		structpages.WithGuardTTL(cfg.Hydration.GuardTTL),
		structpages.WithHydratorLogger(a.logger),
		structpages.WithHydrationRecorder(a.recorder),
	)
	a.sessions = newSessionManager(cfg.Session)
	a.decoder = form.NewDecoder()
	a.decoder.SetTagName("form")

	handler, err := a.routes(cfg, opts.Metrics)
	if err != nil {
		return nil, err
	}
	a.handler = handler
	return a, nil
}

func newSessionManager(cfg config.Session) *scs.SessionManager {
	sm := scs.New()
	sm.Store = memstore.New()
	sm.Lifetime = cfg.Lifetime
	sm.Cookie.Name = cfg.CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.Secure
	return sm
}

func (a *App) routes(cfg *config.Config, metricsHandler http.Handler) (http.Handler, error) {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID, middleware.RealIP, a.requestLogger, middleware.Recoverer)

	mux.Get("/healthz", a.healthz)
	if metricsHandler != nil {
		mux.Method(http.MethodGet, cfg.Metrics.Path, metricsHandler)
	}

	router := chirouter.NewChiRouter(mux)
	a.hydrator.Register(router)

	sp := structpages.New(
		structpages.WithDefaultPageConfig(structpages.HTMXPageConfig),
		structpages.WithErrorHandler(a.handleError),
		structpages.WithMiddlewares(
			a.observe,
			withRequestPath,
			wrapMiddleware(a.sessions.LoadAndSave),
			a.hydrator.Middleware,
		),
	)
	if err := sp.MountPages(router, &pages{}, "/", a.name, a); err != nil {
		return nil, err
	}
	return mux, nil
}

// ServeHTTP serves the pages, the hydrator mount endpoints, /healthz and /metrics.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// RouteTable lists the page routes with their IDs, methods and titles.
func (a *App) RouteTable() (string, error) {
	return structpages.PrintRoutes("/", &pages{}, a)
}

// Hydrator returns the hydrator the client-only widgets mount through.
func (a *App) Hydrator() *structpages.Hydrator {
	return a.hydrator
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := a.store.Ping(r.Context()); err != nil {
		a.logger.LogAttrs(r.Context(), slog.LevelError, "health check failed", logfields.Error(err))
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"guards": a.hydrator.Len(),
	})
}
