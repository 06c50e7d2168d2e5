package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/brokerdesk/api/internal/config"
	"github.com/stwalsh4118/brokerdesk/api/internal/currency"
	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/handlers"
	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
	"github.com/stwalsh4118/brokerdesk/api/internal/middleware"
	"github.com/stwalsh4118/brokerdesk/api/internal/repository"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
	"github.com/stwalsh4118/brokerdesk/api/internal/storage"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting BrokerDesk API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Failed to apply database schema", err, nil)
	}

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Redis only caches the exchange rate, so the API starts without it
	var rateCache currency.Cache
	var deps []handlers.Dependency
	redisClient, err := currency.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, exchange rate caching disabled", map[string]interface{}{
			"addr":  cfg.Redis.Addr,
			"error": err.Error(),
		})
	} else {
		cache := currency.NewRedisCache(redisClient)
		defer cache.Close()
		rateCache = cache
		deps = append(deps, handlers.Dependency{Name: "redis", Pinger: cache})
	}

	// Document storage
	blobs, err := storage.NewMinioStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to connect to object storage", err, map[string]interface{}{
			"endpoint": cfg.Storage.Endpoint,
			"bucket":   cfg.Storage.Bucket,
		})
	}
	deps = append(deps, handlers.Dependency{Name: "minio", Pinger: blobs})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env, deps...)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize repository and service layers
	repos := services.PolicyRepos{
		Policies:     repository.NewPolicyRepository(db),
		Clients:      repository.NewClientRepository(db),
		Insurers:     repository.NewInsurerRepository(db),
		Installments: repository.NewInstallmentRepository(db),
		Insured:      repository.NewInsuredRepository(db),
		Claims:       repository.NewClaimRepository(db),
		Documents:    repository.NewDocumentRepository(db),
	}

	clientService := services.NewClientService(repos.Clients, repos.Policies, log)
	insurerService := services.NewInsurerService(repos.Insurers, log)
	policyService := services.NewPolicyService(db, repos, log)
	renewalService := services.NewRenewalService(db, repos, log)
	installmentService := services.NewInstallmentService(repos.Installments, repos.Policies, log)
	insuredService := services.NewInsuredService(repos.Insured, repos.Policies, log)
	claimService := services.NewClaimService(repos.Claims, repos.Policies, log)
	documentService := services.NewDocumentService(blobs, repos, log)
	dashboardService := services.NewDashboardService(repos.Policies, repos.Installments, repos.Clients, log)
	reportService := services.NewReportService(repos.Policies, log)

	rateSource := currency.NewHTMLSource(
		&http.Client{Timeout: cfg.Currency.Timeout},
		cfg.Currency.SourceURL,
		cfg.Currency.ElementID,
	)
	rates := currency.NewService(rateSource, rateCache, cfg.Currency.CacheTTL, log)

	// Initialize handlers
	clientHandler := handlers.NewClientHandler(clientService)
	insurerHandler := handlers.NewInsurerHandler(insurerService)
	policyHandler := handlers.NewPolicyHandler(policyService, renewalService)
	installmentHandler := handlers.NewInstallmentHandler(installmentService)
	insuredHandler := handlers.NewInsuredHandler(insuredService)
	claimHandler := handlers.NewClaimHandler(claimService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	reportHandler := handlers.NewReportHandler(reportService)
	currencyHandler := handlers.NewCurrencyHandler(rates)

	// Register API v1 routes; every one of them acts on behalf of an agent
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth([]byte(cfg.Auth.JWTSecret)))
	{
		clients := v1.Group("/clients")
		{
			clients.GET("", clientHandler.List)
			clients.POST("", clientHandler.Create)
			clients.GET("/:id", clientHandler.Get)
			clients.PUT("/:id", clientHandler.Update)
			clients.DELETE("/:id", clientHandler.Delete)
		}

		insurers := v1.Group("/insurers")
		{
			insurers.GET("", insurerHandler.List)
			insurers.POST("", insurerHandler.Create)
			insurers.GET("/:id", insurerHandler.Get)
			insurers.PUT("/:id", insurerHandler.Update)
			insurers.DELETE("/:id", insurerHandler.Delete)
		}

		policies := v1.Group("/policies")
		{
			policies.GET("", policyHandler.List)
			policies.POST("", policyHandler.Create)
			policies.GET("/:id", policyHandler.Get)
			policies.PUT("/:id", policyHandler.Update)
			policies.DELETE("/:id", policyHandler.Delete)
			policies.POST("/:id/renew", policyHandler.Renew)
			policies.POST("/:id/cancel-renewal", policyHandler.CancelRenewal)
			policies.GET("/:id/installments", installmentHandler.ListByPolicy)
			policies.GET("/:id/insured", insuredHandler.ListByPolicy)
			policies.POST("/:id/insured", insuredHandler.Create)
			policies.GET("/:id/claims", claimHandler.ListByPolicy)
			policies.POST("/:id/claims", claimHandler.Create)
		}

		v1.POST("/installments/:id/pay", installmentHandler.Pay)
		v1.POST("/installments/:id/revert", installmentHandler.Revert)

		v1.PUT("/insured/:id", insuredHandler.Update)
		v1.DELETE("/insured/:id", insuredHandler.Delete)

		claims := v1.Group("/claims")
		{
			claims.GET("/:id", claimHandler.Get)
			claims.PUT("/:id", claimHandler.Update)
			claims.DELETE("/:id", claimHandler.Delete)
		}

		documents := v1.Group("/documents")
		{
			documents.GET("", documentHandler.List)
			documents.POST("", documentHandler.Upload)
			documents.GET("/:id", documentHandler.Get)
			documents.DELETE("/:id", documentHandler.Delete)
		}

		v1.GET("/dashboard", dashboardHandler.Get)
		v1.GET("/reports/summary", reportHandler.Summary)
		v1.GET("/reports/policies.csv", reportHandler.PoliciesCSV)
		v1.GET("/currency/usd", currencyHandler.USD)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
