// Package api serves the gateway: the public endpoints of the current
// project, the login route and the admin API used by the editors.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"evalgo.org/bffgate/internal/auth"
	"evalgo.org/bffgate/internal/config"
	"evalgo.org/bffgate/internal/engine"
	"evalgo.org/bffgate/internal/scheduler"
	"evalgo.org/bffgate/internal/store"
	"evalgo.org/bffgate/internal/version"
	"evalgo.org/bffgate/models"
)

// Server represents the gateway HTTP server.
type Server struct {
	echo       *echo.Echo
	store      *store.Store
	engine     *engine.Engine
	config     *config.Config
	wsHub      *Hub
	authMiddle *auth.Middleware
	logger     *log.Entry

	unsubscribe func()
}

// New creates a new server instance.
func New(cfg *config.Config, st *store.Store, eng *engine.Engine, issuer *auth.Issuer) *Server {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Server.Debug
	e.HTTPErrorHandler = HTTPErrorHandler

	hub := NewHub()

	server := &Server{
		echo:       e,
		store:      st,
		engine:     eng,
		config:     cfg,
		wsHub:      hub,
		authMiddle: auth.NewMiddleware(issuer, cfg.Security.AdminAPIKeys),
		logger:     log.WithField("component", "api"),
	}

	go hub.Run()

	server.unsubscribe = st.Subscribe(server.onChange)
	eng.Observe(server.onReport)

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.WithFields(log.Fields{
				"status":     v.Status,
				"method":     v.Method,
				"uri":        v.URI,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			}).Info("request")
			return nil
		},
	}))

	s.echo.Use(middleware.Recover())
	s.echo.Use(SecurityHeaders)

	if len(s.config.Security.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.config.Security.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, auth.HeaderAPIKey},
		}))
	}

	s.echo.Use(middleware.RequestID())

	if s.config.Security.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.config.Security.RateLimit),
		)))
	}

	s.echo.Use(ValidateContentType)
	s.echo.Use(ValidateAcceptHeader)
}

// setupRoutes configures routes. Public endpoints are resolved per request
// against the current project, so they share a catch-all route.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	s.echo.POST("/login", s.login, middleware.BodyLimit(maxBodySize))

	v1 := s.echo.Group("/api/v1", s.authMiddle.RequireAPIKey, ValidateIDParams)

	v1.GET("/project", s.getProject)
	v1.PUT("/project", s.replaceProject)

	v1.PUT("/endpoints/:id", s.putPublicEndpoint)
	v1.DELETE("/endpoints/:id", s.removePublicEndpoint)
	v1.PUT("/apis/:id", s.putUpstreamApi)
	v1.DELETE("/apis/:id", s.removeUpstreamApi)

	mappings := v1.Group("/mappings")
	mappings.GET("", s.listMappings)
	mappings.PUT("/response/:fieldId", s.putResponseMapping)
	mappings.DELETE("/response/:fieldId", s.removeResponseMapping)
	mappings.PUT("/request/:endpointId/:fieldId", s.putRequestMapping)
	mappings.DELETE("/request/:endpointId/:fieldId", s.removeRequestMapping)

	security := v1.Group("/security")
	security.GET("", s.getSecurity)
	security.PUT("", s.putSecurity)
	security.PUT("/auth-provider", s.putAuthProvider)
	security.POST("/claims", s.addClaimMapping)
	security.DELETE("/claims/:id", s.removeClaimMapping)

	v1.GET("/plan", s.getPlan)
	v1.POST("/validate", s.validateProject)
	v1.GET("/export", s.exportBundle)
	v1.POST("/execute/:id", s.executeEndpoint)

	ws := v1.Group("/ws")
	ws.GET("/events", s.HandleWebSocket)
	ws.GET("/stats", s.GetWebSocketStats)

	s.echo.Any("/*", s.handleGateway, middleware.BodyLimit(maxBodySize), s.authMiddle.RequireBearer(s.securityEnabled))
}

func (s *Server) securityEnabled() bool {
	return s.store.Security().Enabled
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.config.Server.Address()

	s.logger.WithFields(log.Fields{
		"address": addr,
		"debug":   s.config.Server.Debug,
		"version": version.Version,
	}).Info("Starting bffgate")

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout

	if s.config.Server.TLSEnabled {
		return s.echo.StartTLS(addr, s.config.Server.TLSCert, s.config.Server.TLSKey)
	}

	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down bffgate")

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.wsHub.Stop()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

// healthCheck handles health check requests.
func (s *Server) healthCheck(c echo.Context) error {
	p, v := s.store.SnapshotVersion()
	resolver := s.store.Resolver()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "bffgate",
		"version": version.Version,
		"project": map[string]interface{}{
			"name":              p.Name,
			"version":           v,
			"public_endpoints":  len(p.PublicEndpoints),
			"upstream_apis":     len(p.UpstreamApis),
			"response_mappings": resolver.ResponseCount(),
			"request_mappings":  resolver.RequestCount(),
			"security_enabled":  p.SecurityConfig.Enabled,
		},
	})
}

// onChange pushes every project change together with the new phase plan.
func (s *Server) onChange(change store.Change) {
	eventType := EventProjectUpdated
	switch change.Type {
	case store.ChangeTypeReplaced:
		eventType = EventProjectReplaced
	case store.ChangeTypeDeleted:
		eventType = EventProjectDeleted
	}

	s.broadcast(Event{Type: eventType, Data: change})

	plan, _ := scheduler.New(s.schedulerOptions()).Plan(s.store.Snapshot())
	s.broadcast(Event{Type: EventPlanChanged, Data: changeEvent{Change: change, Plan: plan}})
}

func (s *Server) onReport(report *models.ExecutionReport) {
	eventType := EventExecutionCompleted
	if report.TimedOut {
		eventType = EventExecutionFailed
	}
	s.broadcast(Event{Type: eventType, Data: report})
}

func (s *Server) broadcast(event Event) {
	if err := s.wsHub.BroadcastEvent(event); err != nil {
		s.logger.WithError(err).Error("Failed to broadcast event")
	}
}

func (s *Server) schedulerOptions() scheduler.Options {
	return scheduler.Options{MaxPasses: s.config.Gateway.MaxPasses}
}

// ServeHTTP allows Server to implement http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
