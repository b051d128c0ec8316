// Package server exposes the collage engines over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	collage "github.com/menta2k/collage-maker"
)

const shutdownTimeout = 10 * time.Second

// DefaultMaxDimension caps requested output sides when Config leaves it unset
const DefaultMaxDimension = 4096

// Config holds the listener settings
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxUploadMB  int64
	// MaxDimension caps the width and height a request may ask for
	MaxDimension int
}

// Server serves collage requests
type Server struct {
	httpServer *http.Server
	handler    *Handler
	logger     *log.Logger
}

// New creates a server around maker
func New(maker *collage.Maker, cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	h := NewHandler(maker, logger, cfg.MaxDimension)
	router := InitRoutes(h, cfg.MaxUploadMB)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			MaxHeaderBytes:    1 << 20,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
		},
		handler: h,
		logger:  logger,
	}
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// InitRoutes builds the gin router
func InitRoutes(h *Handler, maxUploadMB int64) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	if maxUploadMB > 0 {
		router.MaxMultipartMemory = maxUploadMB << 20
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "collage-maker",
		})
	})

	api := router.Group("/v1", limitBody(h, maxUploadMB<<20))
	{
		api.POST("/collages/justified", h.Justified)
		api.POST("/crops/face", h.FaceCrop)
		api.GET("/templates", h.Templates)
	}
	return router
}
