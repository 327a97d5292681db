package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nanogen/studio/config"
	"github.com/nanogen/studio/internal/events"
	"github.com/nanogen/studio/internal/generation"
	"github.com/nanogen/studio/internal/handlers"
	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/internal/prompt"
	"github.com/nanogen/studio/internal/services"
	"github.com/nanogen/studio/internal/slot"
	"github.com/nanogen/studio/internal/store"
)

const requestTimeout = 60 * time.Second

// Services bundles the use-cases served over HTTP.
type Services struct {
	Users         *services.UserService
	Studio        *services.StudioService
	Subscriptions *services.SubscriptionService
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        logging.Logger
	closers    []func() error
}

// New builds every component from cfg and mounts the API.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.New(os.Stdout, cfg.LogLevel)

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	hasher, err := store.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		return nil, err
	}

	s, releaseSlot, err := slot.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers := []func() error{releaseSlot}

	gen, err := generation.New(ctx, cfg.Gemini, log)
	if err != nil {
		_ = releaseSlot()
		return nil, fmt.Errorf("init generation client: %w", err)
	}

	bus, err := events.Open(ctx, cfg.Events, log)
	if err != nil {
		_ = releaseSlot()
		return nil, err
	}
	closers = append(closers, bus.Close)

	users := store.NewUserStore(s, cfg.Slot.Key, hasher, log.With("component", "store"))
	composer := prompt.NewComposer(cfg.Gemini.FlashModel, cfg.Gemini.ProModel)

	svc := Services{
		Users:         services.NewUserService(users),
		Studio:        services.NewStudioService(users, composer, gen, bus, log.With("component", "studio")),
		Subscriptions: services.NewSubscriptionService(users, log.With("component", "subscription")),
	}
	router := NewRouter(svc, jwtSecret, cfg.CORSOrigin)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	// No write timeout: generation requests wait on the remote model.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	log.Info(ctx, "server configured",
		"port", port,
		"slot_backend", cfg.Slot.Backend,
		"events_backend", cfg.Events.Backend,
		"credential_configured", gen.HasCredential(),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		log:        log,
		closers:    closers,
	}, nil
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(svc Services, jwtSecret, corsOrigin string) *chi.Mux {
	authMiddleware := handlers.RequireAuth(jwtSecret, svc.Users)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		cors.Handler(corsOptions(corsOrigin)),
	)
	router.Get("/healthz", handlers.Healthz)

	// Studio calls are bounded by the remote model, not by a local timeout.
	router.Route("/studio", func(r chi.Router) {
		handlers.StudioRouter(r, svc.Studio, svc.Users, authMiddleware)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, svc.Users, jwtSecret)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, svc.Users, authMiddleware)
		})
		r.Route("/subscription", func(r chi.Router) {
			handlers.SubscriptionRouter(r, svc.Subscriptions, authMiddleware)
		})
	})
	return router
}

func corsOptions(origin string) cors.Options {
	origins := []string{"*"}
	if o := strings.TrimSpace(origin); o != "" && o != "*" {
		origins = strings.Split(o, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then releases backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	for i := len(s.closers) - 1; i >= 0; i-- {
		if cerr := s.closers[i](); cerr != nil {
			s.log.Warn(ctx, "failed to release backend", "error", cerr)
		}
	}
	return err
}
