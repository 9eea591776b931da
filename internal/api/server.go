package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/config"
	"github.com/Eventstwogo/events-backend-sub002/internal/handlers"
	"github.com/Eventstwogo/events-backend-sub002/internal/metrics"
	"github.com/Eventstwogo/events-backend-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Server представляет административный HTTP сервер планировщика
type Server struct {
	router *gin.Engine
	config *config.Config
	http   *http.Server
}

// NewServer создает новый экземпляр сервера. search может быть nil
func NewServer(cfg *config.Config, jobs handlers.JobRunner, db handlers.HealthChecker, search handlers.SearchChecker) *Server {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	server := &Server{
		router: router,
		config: cfg,
	}

	h := handlers.NewHandlers(jobs, db, cfg.ServiceName)
	if search != nil {
		h.WithSearch(search)
	}
	server.setupRoutes(h)

	server.http = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
	}

	return server
}

// setupRoutes настраивает роуты
func (s *Server) setupRoutes(h *handlers.Handlers) {
	s.router.GET("/health", h.Health)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.router.Group("/api")
	api.Use(middleware.AdminAuth(s.config.AdminUser, s.config.AdminPassword))
	{
		api.GET("/jobs", h.ListJobs)
		api.POST("/jobs/:id/run", h.RunJob)
	}
}

// Start запускает HTTP сервер в фоне
func (s *Server) Start() {
	go func() {
		slog.Info("Admin HTTP server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Admin HTTP server failed", "error", err)
		}
	}()
}

// Shutdown останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
