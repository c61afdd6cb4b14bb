package rest

import (
	"net/http"

	"friendship-backend/infrastructure/di"
	"friendship-backend/interfaces/http/rest/handlers"
	"friendship-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	_ "friendship-backend/docs/swagger"
)

// Router creates and configures the HTTP router
type Router struct {
	container *di.Container
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(container *di.Container) *Router {
	return &Router{
		container: container,
		logger:    container.Logger.Named("http"),
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	c := rt.container
	cfg := c.Config
	router := chi.NewRouter()

	// Global middleware
	if c.Tracer.Enabled() {
		router.Use(middleware.Tracing(di.ServiceName))
	}
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(c.ErrorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(c.Metrics))
	if cfg.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	if cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		c.ErrorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		c.ErrorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check
	healthHandler := handlers.NewHealthHandler(c.Store, c.ErrorHandler, rt.logger)
	router.Get("/health", healthHandler.Health)
	router.Get("/ready", healthHandler.Ready)

	if c.Collector != nil {
		router.Handle("/metrics", c.Collector.Handler())
	}
	router.Get("/docs/doc.json", rt.apiDocs)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			userHandler := handlers.NewUserHandler(c.CommandBus, c.QueryBus, c.ErrorHandler, rt.logger)
			r.Post("/", userHandler.CreateUser)
			r.Get("/", userHandler.ListUsers)
			r.Get("/{userID}", userHandler.GetUser)
			r.Patch("/{userID}", userHandler.UpdateUser)
			r.Delete("/{userID}", userHandler.DeleteUser)

			friendshipHandler := handlers.NewFriendshipHandler(c.CommandBus, c.QueryBus, c.ErrorHandler, rt.logger)
			r.Get("/{userID}/friends", friendshipHandler.GetFriends)
			r.Post("/{userID}/friends", friendshipHandler.AddFriendship)
			r.Delete("/{userID}/friends/{friendID}", friendshipHandler.RemoveFriendship)
		})
	})

	return router
}

// apiDocs serves the registered OpenAPI document
func (rt *Router) apiDocs(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		rt.container.ErrorHandler.HandleStatus(w, r, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}
