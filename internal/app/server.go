package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/davidokpare/extracta/internal/api/handlers"
	appMiddleware "github.com/davidokpare/extracta/internal/api/middlewares"
	"github.com/davidokpare/extracta/internal/config"
	"github.com/davidokpare/extracta/internal/core/database"
	"github.com/davidokpare/extracta/internal/core/scheduler"
	"github.com/davidokpare/extracta/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, registry database.Registry, docSvc *services.DocumentService, textSvc *services.TextService, sched *scheduler.Scheduler) *Server {
	authHandler := handlers.NewAuthHandler(registry, cfg.JWTSecret)
	docHandler := handlers.NewDocumentHandler(docSvc)
	textHandler := handlers.NewTextHandler(textSvc)
	pollHandler := handlers.NewPollHandler(sched)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// public endpoints
	r.Post("/auth/", authHandler.Signup)
	r.Post("/auth/token", authHandler.Token)
	r.Post("/webhook", handlers.Webhook)
	r.Get("/poll/", pollHandler.Run)

	// protected endpoints
	r.Group(func(protected chi.Router) {
		protected.Use(appMiddleware.JWT(cfg.JWTSecret))
		protected.Use(httprate.LimitByIP(5, time.Minute))

		protected.Get("/", handlers.Health)
		protected.Route("/pdf", func(pdf chi.Router) {
			pdf.Post("/upload", docHandler.Upload)
			pdf.Get("/", docHandler.List)
			pdf.Get("/metadata/{file_name}", docHandler.Metadata)
			pdf.Delete("/delete/{file_name}", docHandler.Delete)
			pdf.Get("/text/{file_name}", textHandler.Extract)
			pdf.Get("/text-cache/{file_key}", textHandler.RetrieveCached)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
