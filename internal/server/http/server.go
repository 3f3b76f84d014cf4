// Package httpserver provides the HTTP REST API server for the recipe
// catalog service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fodmapkitchen/recipe-catalog-service/internal/observability"
	"github.com/fodmapkitchen/recipe-catalog-service/internal/repository"
)

// Server is the HTTP REST API server.
type Server struct {
	router         chi.Router
	httpServer     *http.Server
	recipeRepo     repository.RecipeRepository
	categoryRepo   repository.CategoryRepository
	ingredientRepo repository.IngredientRepository
	tagRepo        repository.TagRepository
	health         func(ctx context.Context) (status, errMsg string)
	validate       *validator.Validate
	logger         zerolog.Logger
	metrics        *observability.Metrics
	rateLimiter    *rateLimiter
}

// Config holds HTTP server configuration.
type Config struct {
	Address           string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RateLimitEnabled  bool
	RequestsPerSecond float64
	Burst             int
}

// NewServer creates a new HTTP server with all dependencies. metrics may be
// nil when metrics are disabled.
func NewServer(
	cfg Config,
	recipeRepo repository.RecipeRepository,
	categoryRepo repository.CategoryRepository,
	ingredientRepo repository.IngredientRepository,
	tagRepo repository.TagRepository,
	health func(ctx context.Context) (status, errMsg string),
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		recipeRepo:     recipeRepo,
		categoryRepo:   categoryRepo,
		ingredientRepo: ingredientRepo,
		tagRepo:        tagRepo,
		health:         health,
		validate:       validator.New(),
		logger:         logger.With().Str("component", "http-server").Logger(),
		metrics:        metrics,
	}

	if cfg.RateLimitEnabled {
		s.rateLimiter = newRateLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Router exposes the underlying router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(requestLoggingMiddleware(s.logger, s.metrics))
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints are never rate limited.
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimiter != nil {
			r.Use(rateLimitMiddleware(s.rateLimiter, s.metrics))
		}

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.listRecipes)
			r.Post("/", s.createRecipe)
			r.Post("/bulk", s.bulkCreateRecipes)
			r.Delete("/bulk", s.bulkDeleteRecipes)
			r.Get("/{recipeID}", s.getRecipe)
			r.Put("/{recipeID}", s.updateRecipe)
			r.Delete("/{recipeID}", s.deleteRecipe)
			r.Put("/{recipeID}/ingredients", s.replaceRecipeIngredients)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Post("/", s.createCategory)
			r.Get("/{categoryID}", s.getCategory)
			r.Put("/{categoryID}", s.updateCategory)
			r.Delete("/{categoryID}", s.deleteCategory)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", s.listIngredients)
			r.Post("/", s.createIngredient)
			r.Get("/{ingredientID}", s.getIngredient)
			r.Put("/{ingredientID}", s.updateIngredient)
			r.Delete("/{ingredientID}", s.deleteIngredient)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.listTags)
			r.Post("/", s.createTag)
			r.Get("/{tagID}", s.getTag)
			r.Put("/{tagID}", s.updateTag)
			r.Delete("/{tagID}", s.deleteTag)
		})
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, errMsg := s.health(r.Context())
	if status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": status,
		"error":    errMsg,
	})
}

// readinessHandler reports whether the service can take traffic.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	status, errMsg := s.health(r.Context())
	if status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": status,
			"error":    errMsg,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}
