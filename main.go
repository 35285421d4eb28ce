package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"smart-stock-trader/config"
	"smart-stock-trader/internal/api"
	"smart-stock-trader/internal/auth"
	"smart-stock-trader/internal/billing"
	"smart-stock-trader/internal/bot"
	"smart-stock-trader/internal/cache"
	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/email"
	"smart-stock-trader/internal/events"
	"smart-stock-trader/internal/license"
	"smart-stock-trader/internal/logging"
	"smart-stock-trader/internal/vault"
)

func main() {
	// Missing .env is fine, the environment may be set by the deployment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Pretty: cfg.Logging.Pretty,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Vault overrides env-sourced secrets when enabled
	if cfg.Vault.Enabled {
		vaultClient, err := vault.NewClient(cfg.Vault)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to vault")
		}
		if _, err := vaultClient.LoadAppSecrets(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to load secrets from vault")
		}
		vaultClient.ApplyTo(cfg)
		log.Info().Msg("secrets loaded from vault")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.NewDBFromURL(cfg.Database.URL)
	} else {
		db, err = database.NewDB(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
		})
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	repo := database.NewRepository(db)

	if err := auth.SeedAdminUser(ctx, repo, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin user")
	}

	var cacheService *cache.CacheService
	if cfg.Redis.Enabled {
		cacheService, err = cache.NewCacheService(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without cache")
			cacheService = nil
		} else {
			defer cacheService.Close()
		}
	}
	statsCache := cache.NewStatsCache(cacheService)

	eventBus := events.NewEventBus()

	authConfig := auth.DefaultConfig()
	authConfig.JWTSecret = cfg.Auth.JWTSecret
	authConfig.AccessTokenDuration = cfg.Auth.AccessTokenDuration
	authConfig.RefreshTokenDuration = cfg.Auth.RefreshTokenDuration
	if cfg.Auth.MinPasswordLength > 0 {
		authConfig.MinPasswordLength = cfg.Auth.MinPasswordLength
	}
	if cfg.Auth.MaxSessionsPerUser > 0 {
		authConfig.MaxSessionsPerUser = cfg.Auth.MaxSessionsPerUser
	}
	authConfig.RequireEmailVerification = cfg.Auth.RequireEmailVerification

	authService, err := auth.NewService(repo, authConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth service")
	}

	mailer := email.NewService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})

	licenseService := license.NewService(repo)
	registry := bot.NewRegistry(repo, licenseService, eventBus)

	stripeConfig := billing.StripeConfig{
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	}
	if cfg.Stripe.Enabled {
		stripeConfig.SecretKey = cfg.Stripe.SecretKey
		stripeConfig.WebhookSecret = cfg.Stripe.WebhookSecret
	} else {
		log.Info().Msg("stripe disabled, paid checkout unavailable")
	}
	stripeClient := billing.NewStripeClient(stripeConfig)
	billingService := billing.NewService(stripeClient, repo, licenseService, mailer, stripeConfig)

	// Expired refresh sessions accumulate without periodic cleanup
	go runSessionCleanup(ctx, authService, cfg.Auth.SessionCleanupInterval)

	server := api.NewServer(api.Deps{
		Config:      cfg,
		Repo:        repo,
		Bus:         eventBus,
		AuthService: authService,
		Registry:    registry,
		Licenses:    licenseService,
		Billing:     billingService,
		StatsCache:  statsCache,
	})

	log.Info().Int("port", cfg.Server.Port).Msg("starting smart-stock-trader server")
	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server stopped")
}

func runSessionCleanup(ctx context.Context, authService *auth.Service, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := authService.CleanupExpiredSessions(ctx); err != nil {
				log.Warn().Err(err).Msg("session cleanup failed")
			}
		}
	}
}
