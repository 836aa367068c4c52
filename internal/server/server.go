package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"issuetracker/internal/storage"
)

// Server provides HTTP handlers for the issue tracker backend.
type Server struct {
	engine    *gin.Engine
	store     storage.Store
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store storage.Store, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))
	router.Use(cors())

	srv := &Server{
		engine:    router,
		store:     store,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		issues := api.Group("/issues")
		{
			issues.GET(":project", s.handleListIssues)
			issues.POST(":project", s.handleCreateIssue)
			issues.PUT(":project", s.handleUpdateIssue)
			issues.DELETE(":project", s.handleDeleteIssue)
		}
	}

	s.mountStatic()
}

// handleHealth reports whether the store answers a ping.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Error("store ping failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// cors allows the issue API to be called from any origin.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// respondError logs the cause and replies with a fixed JSON error body.
// Issue routes report failures in the body only; the status stays 200.
func (s *Server) respondError(c *gin.Context, err error, payload gin.H) {
	if err != nil {
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("project", c.Param("project")),
			slog.String("error", err.Error()))
	}
	c.JSON(http.StatusOK, payload)
}

// respondSuccess replies with payload and a 200 status.
func respondSuccess(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
