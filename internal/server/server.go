package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/tasklift/tasklift/internal/api/ws"
	"github.com/tasklift/tasklift/internal/config"
	"github.com/tasklift/tasklift/internal/domain"
	"github.com/tasklift/tasklift/internal/lifecycle"
	"github.com/tasklift/tasklift/internal/server/middleware"
	redisstore "github.com/tasklift/tasklift/internal/store/redis"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	wsHub      *ws.Hub
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the lifetime of
// background middleware state (rate limiter cleanup).
func New(ctx context.Context, cfg *config.Config, engine *lifecycle.Engine, feed *redisstore.Feed) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID", middleware.HeaderTenantID, middleware.HeaderWorkspaceID, middleware.HeaderActorID, middleware.HeaderActorRole},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	router.Use(middleware.Identity())

	hub := ws.NewHub(feed)

	s := &Server{
		router: router,
		wsHub:  hub,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Workspace-scoped task mutations, role-gated.
	// 2. Workspace-scoped task reads.
	// 3. Tenant-wide event inspection routes.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireTenant())
		r.Use(middleware.RateLimit(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireWorkspace())
			r.Use(middleware.RequireRole(domain.RoleManager, domain.RoleAgent))

			mutationConfig := huma.DefaultConfig("Tasklift API", "1.0.0")
			mutationConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			mutationAPI := humachi.New(r, mutationConfig)
			registerTaskMutationRoutes(mutationAPI, engine)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireWorkspace())

			queryConfig := huma.DefaultConfig("Tasklift API", "1.0.0")
			queryConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			queryAPI := humachi.New(r, queryConfig)
			registerTaskQueryRoutes(queryAPI, engine)
		})

		r.Group(func(r chi.Router) {
			eventConfig := huma.DefaultConfig("Tasklift Events API", "1.0.0")
			eventConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			eventAPI := humachi.New(r, eventConfig)
			registerEventRoutes(eventAPI, engine)
		})
	})

	// WebSocket routes: live event feed per workspace.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.RequireTenant())
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
