// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyalty-campaign/internal/config"
	"loyalty-campaign/internal/domain/ports/repository"
	pg "loyalty-campaign/internal/infra/db/postgres"
	"loyalty-campaign/internal/infra/i18n"
	"loyalty-campaign/internal/infra/logging"
	"loyalty-campaign/internal/infra/metrics"
	red "loyalty-campaign/internal/infra/redis"
	"loyalty-campaign/internal/infra/scheduler"
	"loyalty-campaign/internal/infra/security"
	"loyalty-campaign/internal/infra/web"
	"loyalty-campaign/internal/usecase"
)

// Set by -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Config & logging ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if cfg.Database.Migrate {
		if err := pg.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
		logger.Info().Msg("schema migrated")
	}
	tm := pg.NewTxManager(pool)

	// ---- Repositories ----
	campaignRepo := pg.NewCampaignRepo(pool)
	barcodeRepo := pg.NewCampaignBarcodeRepo(pool)
	bindingRepo := pg.NewUserBarcodeRepo(pool)
	userRepo := pg.NewPostgresUserRepo(pool)
	childRepo := pg.NewChildRepo(pool)
	var opportunityRepo repository.OpportunityRepository = pg.NewOpportunityRepo(pool)

	// ---- Redis (optional) ----
	var (
		limiter   repository.AttemptLimiter
		blacklist repository.TokenBlacklist
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
		blacklist = red.NewTokenBlacklist(redisClient)
		opportunityRepo = pg.NewOpportunityRepoCacheDecorator(opportunityRepo, redisClient, cfg.Redis.TTL, logger)
		logger.Info().Msg("redis enabled: login throttling, token revocation and product cache")
	} else {
		logger.Warn().Msg("redis.url not set; login throttling, token revocation and product cache are disabled")
	}

	// ---- Use cases ----
	campaignUC := usecase.NewCampaignUseCase(campaignRepo, logger)
	barcodeUC := usecase.NewBarcodeUseCase(campaignRepo, barcodeRepo, bindingRepo, tm, time.Now, logger)
	userUC := usecase.NewUserUseCase(userRepo, childRepo, tm, security.NewBcryptHasher(0), limiter,
		usecase.UserUseCaseConfig{
			VerificationCode: cfg.Auth.VerificationCode,
			LoginAttempts:    cfg.Auth.LoginAttempts,
			LoginWindow:      cfg.Auth.LoginWindow,
			Dev:              cfg.Runtime.Dev,
		}, logger)
	userUC.OnUserCreated(usecase.AutoAssignHook(barcodeUC, logger))
	opportunityUC := usecase.NewOpportunityUseCase(opportunityRepo, logger)

	// ---- Background gauges ----
	poolStats := scheduler.NewScheduler("db_pool_stats", 15*time.Second, func(ctx context.Context) error {
		s := pool.Stat()
		metrics.SetDBPoolStats(s.TotalConns(), s.IdleConns(), s.AcquiredConns())
		return nil
	}, logger)
	poolStats.Start(ctx)
	defer poolStats.Stop()

	availability := scheduler.NewScheduler("barcode_availability", time.Minute, func(ctx context.Context) error {
		_, err := barcodeUC.Status(ctx, time.Now())
		return err
	}, logger)
	availability.Start(ctx)
	defer availability.Stop()

	// ---- HTTP ----
	locales, err := i18n.NewBundle(i18n.LocalesFS, cfg.HTTP.DefaultLanguage, otherLanguage(cfg.HTTP.DefaultLanguage))
	if err != nil {
		logger.Fatal().Err(err).Msg("locales")
	}
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, blacklist)
	srv := web.NewServer(campaignUC, barcodeUC, userUC, opportunityUC, auth, locales, pool, cfg.Admin.APIKey, cfg.HTTP, logger)
	if cfg.Admin.APIKey == "" {
		logger.Warn().Msg("admin.api_key not set; admin endpoints are disabled")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Routes(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}

// otherLanguage returns the shipped locale that is not the default one.
func otherLanguage(def string) string {
	if def == "en" {
		return "tr"
	}
	return "en"
}
