package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smart-stock-trader/config"
	"smart-stock-trader/internal/auth"
	"smart-stock-trader/internal/billing"
	"smart-stock-trader/internal/bot"
	"smart-stock-trader/internal/cache"
	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/events"
	"smart-stock-trader/internal/license"
	"smart-stock-trader/internal/logging"
)

// RateLimiter is a simple sliding-window limiter keyed by client IP
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether the key may make another request now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	kept := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[key] = kept
		return false
	}

	rl.requests[key] = append(kept, now)
	return true
}

// Server is the HTTP API server
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      *config.Config
	repo        *database.Repository
	bus         *events.EventBus
	authService *auth.Service
	registry    *bot.Registry
	licenses    *license.Service
	billing     *billing.Service
	statsCache  *cache.StatsCache
	hub         *WSHub
	rateLimiter *RateLimiter
	logger      zerolog.Logger
}

// Deps bundles the services the server exposes
type Deps struct {
	Config      *config.Config
	Repo        *database.Repository
	Bus         *events.EventBus
	AuthService *auth.Service
	Registry    *bot.Registry
	Licenses    *license.Service
	Billing     *billing.Service
	StatsCache  *cache.StatsCache
}

// NewServer creates the API server and registers all routes
func NewServer(deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())

	corsConfig := cors.DefaultConfig()
	origins := strings.TrimSpace(deps.Config.Server.AllowedOrigins)
	if origins == "" || origins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		for _, origin := range strings.Split(origins, ",") {
			corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, strings.TrimSpace(origin))
		}
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Device-Info"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:      router,
		config:      deps.Config,
		repo:        deps.Repo,
		bus:         deps.Bus,
		authService: deps.AuthService,
		registry:    deps.Registry,
		licenses:    deps.Licenses,
		billing:     deps.Billing,
		statsCache:  deps.StatsCache,
		hub:         NewWSHub(deps.Bus),
		rateLimiter: NewRateLimiter(deps.Config.Server.RateLimitPerMin, time.Minute),
		logger:      logging.Component("api"),
	}

	s.setupRoutes()
	return s
}

// requestIDMiddleware tags every request so log lines can be correlated
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.rateLimiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "RATE_LIMITED",
				"message": "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.Use(s.rateLimitMiddleware())

	jwtManager := s.authService.GetJWTManager()
	auth.NewHandlers(s.authService).RegisterRoutes(api.Group("/auth"), jwtManager)

	// Billing endpoints the payment provider and pre-signup visitors hit.
	// Optional auth lets a logged-in buyer's checkout bind to their account.
	billingPublic := api.Group("/billing")
	billingPublic.Use(auth.OptionalMiddleware(jwtManager))
	{
		billingPublic.GET("/plans", s.handleListPlans)
		billingPublic.POST("/checkout", s.handleCreateCheckout)
		billingPublic.GET("/payment-success", s.handlePaymentSuccess)
		billingPublic.POST("/webhook", s.handleStripeWebhook)
		billingPublic.POST("/trial", s.handleStartTrial)
	}

	protected := api.Group("")
	protected.Use(auth.Middleware(jwtManager))
	{
		protected.POST("/license/validate", s.handleValidateLicense)
		protected.GET("/licenses", s.handleMyLicenses)

		bots := protected.Group("/bots")
		{
			bots.POST("/register", s.handleRegisterBot)
			bots.GET("", s.handleListBots)
			bots.GET("/:botId", s.handleGetBot)
			bots.POST("/:botId/heartbeat", s.handleHeartbeat)
			bots.POST("/:botId/start", s.handleStartBot)
			bots.POST("/:botId/stop", s.handleStopBot)
			bots.DELETE("/:botId", s.handleDeleteBot)
			bots.GET("/:botId/logs", s.handleGetBotLogs)
			bots.POST("/:botId/logs", s.handleAppendBotLog)
			bots.POST("/:botId/trades", s.handleOpenTrade)
			bots.POST("/:botId/trades/:ticket/close", s.handleCloseTrade)
			bots.GET("/:botId/trades", s.handleListTrades)
			bots.GET("/:botId/stats", s.handleBotStats)
		}

		protected.GET("/trades", s.handleUserTrades)
		protected.GET("/trades/history", s.handleTradeHistory)
		protected.GET("/trades/:tradeId", s.handleGetTrade)
		protected.GET("/dashboard", s.handleDashboard)

		protected.GET("/ws", s.handleWebSocket)
	}

	admin := api.Group("/admin")
	admin.Use(auth.Middleware(jwtManager), auth.RequireAdmin())
	{
		admin.GET("/users", s.handleAdminListUsers)
		admin.GET("/users/:userId", s.handleAdminGetUser)
		admin.PATCH("/users/:userId", s.handleAdminUpdateUser)
		admin.DELETE("/users/:userId", s.handleAdminDeleteUser)
		admin.GET("/licenses", s.handleAdminListLicenses)
		admin.POST("/licenses", s.handleAdminCreateLicense)
		admin.POST("/licenses/:licenseId/revoke", s.handleAdminRevokeLicense)
		admin.DELETE("/licenses/:licenseId", s.handleAdminDeleteLicense)
		admin.GET("/bots", s.handleAdminListBots)
		admin.POST("/bots/:botId/start", s.handleAdminStartBot)
		admin.POST("/bots/:botId/stop", s.handleAdminStopBot)
		admin.DELETE("/bots/:botId", s.handleAdminDeleteBot)
		admin.GET("/logs", s.handleAdminListLogs)
		admin.GET("/stats", s.handleAdminStats)
	}
}

// Start runs the websocket hub and the HTTP listener until the context
// is canceled, then drains connections within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		var err error
		if s.config.Server.TLSEnabled {
			err = s.httpServer.ListenAndServeTLS(s.config.Server.TLSCertFile, s.config.Server.TLSKeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.config.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	s.logger.Info().Msg("shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
		health["status"] = "degraded"
		health["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["database"] = "ok"
	c.JSON(http.StatusOK, health)
}
