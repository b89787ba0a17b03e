package main

import (
	"context"
	"exec-marketplace-backend/config"
	_ "exec-marketplace-backend/docs" // Important for Swagger
	v1 "exec-marketplace-backend/internal/delivery/http/v1"
	"exec-marketplace-backend/internal/repository/postgres"
	"exec-marketplace-backend/internal/usecase"
	"exec-marketplace-backend/pkg/auth"
	"exec-marketplace-backend/pkg/database"
	"exec-marketplace-backend/pkg/logger"
	"exec-marketplace-backend/pkg/redis"
	"exec-marketplace-backend/pkg/webhook"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
)

// @title           Executive Marketplace API
// @version         1.0
// @description     Search, anonymization and disclosure backend for the executive candidate marketplace.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting marketplace backend", "port", cfg.Port)

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (rate limiting; degrades to in-memory if unavailable)
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable, rate limiting falls back to in-memory", "error", err)
	} else {
		defer redis.Close()
	}

	// 5. Setup Repositories
	profileRepo := postgres.NewProfileRepository(dbPool)
	ledgerRepo := postgres.NewLedgerRepository(dbPool)
	accountRepo := postgres.NewAccountRepository(dbPool)
	tagRepo := postgres.NewTagRepository(dbPool)

	// 6. Setup UseCases
	validate := validator.New()
	searchUC := usecase.NewSearchUsecase(profileRepo, ledgerRepo, accountRepo, cfg.FacetCap)
	disclosureUC := usecase.NewDisclosureUsecase(ledgerRepo, accountRepo, profileRepo, cfg.UnlockCost)
	candidateUC := usecase.NewCandidateUsecase(profileRepo, tagRepo, validate)

	// 7. Setup Auth Provider (JWKS) and Webhook Verifier
	jwksProvider := auth.NewProvider(cfg.JWKSURL)
	verifier := webhook.NewVerifier(cfg.WebhookSecret)

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		SearchUC:     searchUC,
		DisclosureUC: disclosureUC,
		CandidateUC:  candidateUC,
		AccountRepo:  accountRepo,
		JWKSProvider: jwksProvider,
		Verifier:     verifier,
		Config:       cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
