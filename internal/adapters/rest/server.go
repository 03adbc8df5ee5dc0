package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	core_port "propertify-view-service/internal/core/port"
)

// Server - REST API сервиса представлений.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

// Handlers - набор хендлеров, которые монтирует сервер.
type Handlers struct {
	Session  *SessionHandler
	Views    *ViewHandler
	Comments *CommentsHandler
}

// NewRouter собирает маршруты. Вынесен отдельно, чтобы тесты работали через httptest.
func NewRouter(handlers Handlers, allowedOrigins []string, baseLogger core_port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-ID", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Client-ID", "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ClientIDMiddleware)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", handlers.Session.GetSession)
			r.Post("/token", handlers.Session.SignIn)
			r.Delete("/token", handlers.Session.SignOut)
			r.Put("/preferences", handlers.Session.UpdatePreferences)
		})

		r.Route("/tables", func(r chi.Router) {
			r.Post("/", handlers.Views.OpenTable)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", handlers.Views.GetTable())
				r.Post("/sort", handlers.Views.SortTable())
				r.Post("/search", handlers.Views.SearchTable())
				r.Post("/page", handlers.Views.SetTablePage())
				r.Post("/page-size", handlers.Views.SetTablePageSize())
				r.Post("/refresh", handlers.Views.RefreshTable())
				r.Delete("/", handlers.Views.CloseView)
			})
		})

		r.Route("/feeds", func(r chi.Router) {
			r.Post("/", handlers.Views.OpenFeed)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", handlers.Views.GetFeed())
				r.Put("/filters", handlers.Views.SetFeedFilters())
				r.Post("/more", handlers.Views.LoadMoreFeed())
				r.Delete("/items/{itemID}", handlers.Views.RemoveFeedItem())
				r.Delete("/", handlers.Views.CloseView)
			})
		})

		r.Get("/views/{sessionID}/events", handlers.Views.SubscribeToView)
		r.Get("/posts/{postID}/comments", handlers.Comments.GetCommentThread)
	})

	return r
}

func NewServer(port string, handlers Handlers, allowedOrigins []string, baseLogger core_port.LoggerPort) *Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: NewRouter(handlers, allowedOrigins, baseLogger),
	}
	return &Server{
		httpServer: srv,
		logger:     baseLogger.WithFields(core_port.Fields{"component": "rest_server"}),
	}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
