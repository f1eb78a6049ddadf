// Package api exposes the solver over HTTP: submitting projects,
// running synchronous decodes, starting asynchronous evolve jobs, and
// streaming their progress over a WebSocket.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khryptorgraphics/rcpspga/internal/config"
	"github.com/khryptorgraphics/rcpspga/pkg/auth"
	"github.com/khryptorgraphics/rcpspga/pkg/rcpsp"
	"github.com/khryptorgraphics/rcpspga/pkg/store"
)

// Server is the API's long-lived state: configuration, persistence,
// auth, the WebSocket hub, and the in-memory table of every project
// built since startup (entries are never removed).
type Server struct {
	config *config.Config
	store  *store.Manager
	jwtSvc *auth.JWTService
	logger *slog.Logger
	hub    *WebSocketHub
	http   *http.Server

	mu           sync.RWMutex
	projects     map[string]*rcpsp.ProjectIndex
	fingerprints map[string]string
	startedAt    time.Time
}

// NewServer wires a Server from its dependencies. A nil store is
// permitted for handlers (decode, build) that don't need persistence;
// evolve and job-status routes will fail cleanly if used without one.
func NewServer(cfg *config.Config, st *store.Manager, logger *slog.Logger) (*Server, error) {
	jwtSvc, err := auth.NewJWTService(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("api: creating jwt service: %w", err)
	}

	return &Server{
		config:       cfg,
		store:        st,
		jwtSvc:       jwtSvc,
		logger:       logger,
		hub:          newWebSocketHub(logger),
		projects:     make(map[string]*rcpsp.ProjectIndex),
		fingerprints: make(map[string]string),
		startedAt:    time.Now(),
	}, nil
}

// Start runs the HTTP server until Stop shuts it down or the listener
// fails. It does not watch ctx; callers call Stop on cancellation.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRouter()

	s.http = &http.Server{
		Addr:         s.config.API.Listen,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.hub.run()

	s.logger.Info("starting api server", "address", s.config.API.Listen)
	return s.http.ListenAndServe()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping api server")
	s.hub.stop()
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}

func (s *Server) setupRouter() *gin.Engine {
	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(s.loggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())
	router.Use(s.securityMiddleware())
	if s.config.API.RateLimit.Enabled {
		router.Use(s.rateLimitMiddleware())
	}

	router.GET("/health", s.healthHandler)
	router.GET("/metrics", s.metricsHandler)
	router.GET("/ws/jobs/:id", s.jobProgressWebSocketHandler)

	v1 := router.Group("/api/v1")
	if s.config.Auth.Enabled {
		v1.Use(auth.JWTAuthMiddleware(s.jwtSvc))
	}
	{
		v1.POST("/projects", s.createProjectHandler)
		v1.POST("/projects/:id/decode", s.decodeHandler)
		v1.POST("/projects/:id/evolve", s.evolveHandler)
		v1.GET("/jobs/:id", s.jobStatusHandler)
	}

	return router
}

func (s *Server) storeProject(idx *rcpsp.ProjectIndex, fingerprint string) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.projects[id] = idx
	s.fingerprints[id] = fingerprint
	s.mu.Unlock()
	return id
}

func (s *Server) lookupProject(id string) (*rcpsp.ProjectIndex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.projects[id]
	return idx, ok
}

func (s *Server) lookupFingerprint(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprints[id]
}
