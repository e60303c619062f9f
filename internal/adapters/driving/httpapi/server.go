// Package httpapi exposes the ingest and query services over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sift-labs/tableqa/internal/core/ports/driving"
	"github.com/sift-labs/tableqa/internal/logger"
)

const (
	// DefaultMaxUploadSize bounds multipart document uploads.
	DefaultMaxUploadSize = "64M"

	// DefaultSearchLimit applies when a search request omits a limit.
	DefaultSearchLimit = 10

	// MaxSearchLimit caps how many results a single request may ask for.
	MaxSearchLimit = 100
)

// Pingers maps backend names to their reachability probes, surfaced
// per-backend by the health route.
type Pingers map[string]func(ctx context.Context) error

// Server wires the core services to an echo router.
type Server struct {
	echo    *echo.Echo
	ingest  driving.IngestService
	query   driving.QueryService
	pingers Pingers
}

// NewServer builds a Server with routes and middleware registered.
// pingers may be nil; the health route then reports only the process.
func NewServer(ingest driving.IngestService, query driving.QueryService, pingers Pingers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.BodyLimit(DefaultMaxUploadSize))

	s := &Server{echo: e, ingest: ingest, query: query, pingers: pingers}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.POST("/query", s.handleQuery)
	api.POST("/query/vector-search", s.handleVectorSearch)
	api.POST("/query/table-search", s.handleTableSearch)

	api.GET("/documents", s.handleListDocuments)
	api.POST("/documents/upload", s.handleUploadDocument)
	api.DELETE("/documents", s.handleClearDocuments)
	api.DELETE("/documents/:filename", s.handleDeleteDocument)

	api.GET("/cache/stats", s.handleCacheStats)
	api.POST("/cache/clear", s.handleCacheClear)
}

// Start begins serving on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	logger.Info("http api listening on %s", addr)
	err := s.echo.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			logger.Debug("%s %s -> %d", c.Request().Method, c.Request().URL.Path, c.Response().Status)
			return err
		}
	}
}
