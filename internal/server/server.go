// Package server assembles the console: per-browser-session upstream
// clients, the route guard, resource caches, health probes, and the HTTP
// surface the dashboard frontend talks to.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/covergrid/docqa-console/internal/apidocs" // register swagger docs
	"github.com/covergrid/docqa-console/internal/webui"
	"github.com/covergrid/docqa-console/pkg/config"
	"github.com/covergrid/docqa-console/pkg/guard"
	"github.com/covergrid/docqa-console/pkg/health"
	"github.com/covergrid/docqa-console/pkg/metrics"
	"github.com/covergrid/docqa-console/pkg/resources"
	"github.com/covergrid/docqa-console/pkg/session"
	"github.com/covergrid/docqa-console/pkg/tokens"
	"github.com/covergrid/docqa-console/pkg/upstream"
)

// Build metadata, set at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Server is the assembled console.
type Server struct {
	cfg      config.Config
	log      *slog.Logger
	store    tokens.Store
	registry *Registry
	checker  *health.Checker
	probe    *health.Probe
	router   chi.Router
}

// New assembles a console server from cfg.
func New(cfg config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	var store tokens.Store
	switch cfg.Storage.Driver {
	case "sqlite":
		var err error
		store, err = tokens.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("opening client state store: %w", err)
		}
	default:
		store = tokens.NewMemoryStore()
	}

	s := &Server{
		cfg:     cfg,
		log:     log,
		store:   store,
		checker: health.NewChecker(),
	}

	// Unauthenticated client for the upstream health probe.
	probeClient, err := upstream.NewClient(cfg.Upstream.BaseURL,
		tokens.NewManager(tokens.NewMemoryStore(), ""),
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithLogger(log.With("component", "probe")),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("building probe client: %w", err)
	}
	s.probe = health.NewProbe(s.checker, func(ctx context.Context) error {
		_, err := probeClient.Health(ctx)
		return err
	}, cfg.Upstream.ProbeEvery, log.With("component", "probe"))

	s.registry = NewRegistry(cfg.Session.TTL, s.newConsoleSession, log.With("component", "sessions"))

	s.router = s.routes()
	return s, nil
}

// newConsoleSession builds the per-browser-session stack: a namespaced
// credential manager, an upstream client bound to it, the sign-in state
// machine, and the cached resource catalog.
func (s *Server) newConsoleSession(id string) (*consoleSession, error) {
	creds := tokens.NewManager(s.store, id)
	client, err := upstream.NewClient(s.cfg.Upstream.BaseURL, creds,
		upstream.WithTimeout(s.cfg.Upstream.Timeout),
		upstream.WithRefreshSkew(s.cfg.Upstream.RefreshSkew),
		upstream.WithLogger(s.log.With("component", "upstream", "console_session", id)),
	)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(client, creds, s.log.With("component", "session", "console_session", id))
	client.OnSessionExpired(mgr.Expire)

	catalog := resources.NewCatalog(client, resources.Config{
		TTL:          s.cfg.Cache.TTL,
		PollInterval: s.cfg.Cache.PollInterval,
		FetchRetries: s.cfg.Cache.FetchRetries,
		Logger:       s.log.With("component", "cache", "console_session", id),
	})

	now := time.Now()
	return &consoleSession{
		id:           id,
		creds:        creds,
		manager:      mgr,
		catalog:      catalog,
		createdAt:    now,
		lastActiveAt: now,
		expiresAt:    now.Add(s.cfg.Session.TTL),
	}, nil
}

// hasPersistedTokens reports whether a cookie value maps to credentials a
// previous login stored. Only such values may be resumed into a session.
func (s *Server) hasPersistedTokens(ctx context.Context, id string) bool {
	pair, err := tokens.NewManager(s.store, id).Pair(ctx)
	if err != nil {
		return false
	}
	return pair.Access != "" || pair.Refresh != ""
}

// Handler returns the console's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes builds the console's route tree.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Registered before the /api/v1 mount so the subrouter inherits it;
	// unmatched API paths then get the JSON 404 instead of chi's default.
	r.NotFound(s.fallback(webui.Handler(), webui.Available()))

	r.Get("/healthz", s.checker.LivenessHandler())
	r.Get("/readyz", s.checker.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/api/v1/docs/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.withConsoleSession)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		// Any authenticated user.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth())

			r.Get("/me", s.handleMe)
			r.Get("/preferences/language", s.handleGetLanguage)
			r.Put("/preferences/language", s.handleSetLanguage)

			r.Route("/companies/{companyID}", func(r chi.Router) {
				r.Get("/documents", s.handleListDocuments)
				r.Post("/documents", s.handleUploadDocument)
				r.Delete("/documents/{documentID}", s.handleDeleteDocument)
				r.Post("/ask", s.handleAsk)
				r.Get("/agent/status", s.handleAgentStatus)
				r.Post("/agent/rebuild", s.handleRebuildAgent)
			})

			r.Route("/chat/conversations", func(r chi.Router) {
				r.Get("/", s.handleListConversations)
				r.Post("/", s.handleCreateConversation)
				r.Get("/{conversationID}", s.handleGetConversation)
				r.Delete("/{conversationID}", s.handleDeleteConversation)
				r.Post("/{conversationID}/messages", s.handleSendMessage)
			})
		})

		// Admin only.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin())

			r.Get("/companies", s.handleListCompanies)
			r.Post("/companies", s.handleCreateCompany)
			r.Put("/companies/{companyID}", s.handleUpdateCompany)
			r.Delete("/companies/{companyID}", s.handleDeleteCompany)

			r.Get("/admin/users", s.handleListUsers)
			r.Post("/admin/users", s.handleCreateUser)
			r.Delete("/admin/users/{userID}", s.handleDeleteUser)

			r.Get("/admin/qa-logs", s.handleQALogs)
			r.Get("/admin/agents/status", s.handleAgentsStatus)
			r.Get("/admin/system/status", s.handleSystemStatus)
		})
	})

	return r
}

// fallback serves unmatched paths. API misses get a JSON 404; page paths
// render the embedded UI behind the page guard, so a direct visit to a
// protected page redirects the way the frontend router would.
func (s *Server) fallback(ui http.Handler, uiAvailable bool) http.HandlerFunc {
	pages := guard.Pages{Entry: s.cfg.Server.EntryPath, Home: s.cfg.Server.HomePath}
	pageGuard := s.withConsoleSession(guard.PageGuard(snapshotFrom, pages)(ui))
	adminPageGuard := s.withConsoleSession(guard.PageGuard(snapshotFrom, pages, upstream.RoleAdmin)(ui))

	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/"):
			writeError(w, http.StatusNotFound, "not found")
		case !uiAvailable:
			http.NotFound(w, r)
		// The entry page and static assets render for everyone; guarding
		// the entry page would redirect it to itself.
		case r.URL.Path == pages.Entry || path.Ext(r.URL.Path) != "":
			ui.ServeHTTP(w, r)
		case strings.HasPrefix(r.URL.Path, "/admin"):
			adminPageGuard.ServeHTTP(w, r)
		default:
			pageGuard.ServeHTTP(w, r)
		}
	}
}

// Run serves until ctx is canceled, then drains and shuts down.
func (s *Server) Run(ctx context.Context) error {
	s.probe.Start()
	s.registry.StartCleanupRoutine(s.cfg.Session.CleanupInterval)

	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("console listening", "address", s.cfg.Server.Address, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
	}

	s.checker.SetDraining()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.close()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// close releases background routines and the state store.
func (s *Server) close() {
	s.probe.Close()
	s.registry.Close()
	if err := s.store.Close(); err != nil {
		s.log.Error("closing state store", "error", err)
	}
}
