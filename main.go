package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/malwarebo/payper/api"
	"github.com/malwarebo/payper/cache"
	"github.com/malwarebo/payper/config"
	"github.com/malwarebo/payper/db"
	"github.com/malwarebo/payper/licensing"
	"github.com/malwarebo/payper/middleware"
	"github.com/malwarebo/payper/monitoring"
	"github.com/malwarebo/payper/rights"
	"github.com/malwarebo/payper/services"
	"github.com/malwarebo/payper/stores"
	"github.com/malwarebo/payper/wallet"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func printBanner() {
	fmt.Printf("%s%s", colorCyan, colorBold)
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                                                              ║")
	fmt.Println("║  💳 Payper Paid-Content Purchase Core                       ║")
	fmt.Println("║                                                              ║")
	fmt.Println("║  Wallet-backed purchases for licensed content               ║")
	fmt.Println("║                                                              ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("%s", colorReset)
}

func printStep(step, message string) {
	fmt.Printf("%s[%s]%s %s%s%s\n", colorBlue, step, colorReset, colorBold, message, colorReset)
}

func printSuccess(message string) {
	fmt.Printf("%s✓%s %s\n", colorGreen, colorReset, message)
}

func printWarning(message string) {
	fmt.Printf("%s⚠%s %s\n", colorYellow, colorReset, message)
}

func printError(message string) {
	fmt.Printf("%s✗%s %s\n", colorRed, colorReset, message)
}

func main() {
	printBanner()
	fmt.Println()

	printStep("1/8", "Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError(fmt.Sprintf("Configuration validation failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Configuration loaded")

	printStep("2/8", "Connecting to database...")
	database, err := db.Open(cfg.GetDatabaseURL(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.MaxLifetime,
		ConnMaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		printError(fmt.Sprintf("Failed to connect to database: %v", err))
		os.Exit(1)
	}
	sqlDB, err := database.DB()
	if err != nil {
		printError(fmt.Sprintf("Failed to access connection pool: %v", err))
		os.Exit(1)
	}
	defer sqlDB.Close()
	if err := db.AutoMigrate(database); err != nil {
		printError(fmt.Sprintf("Failed to run migrations: %v", err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Connected to PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port))

	printStep("3/8", "Connecting to Redis...")
	var contentCache services.ContentCache
	var quoteCache services.QuoteCache
	redisCache, err := cache.CreateRedisCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		printWarning(fmt.Sprintf("Failed to connect to Redis: %v (continuing without cache)", err))
	} else {
		defer redisCache.Close()
		contentCache = redisCache
		quoteCache = redisCache
		printSuccess(fmt.Sprintf("Connected to Redis at %s:%d", cfg.Redis.Host, cfg.Redis.Port))
	}

	printStep("4/8", "Initializing external clients...")
	rightsClient := rights.CreateClient(cfg.Rights.BaseURL, cfg.Rights.APIKey, cfg.Rights.Timeout)

	var userWallet wallet.Wallet
	switch cfg.Wallet.Backend {
	case "stripe":
		if cfg.Stripe.Secret == "" {
			printError("Stripe secret is required for the stripe wallet backend")
			os.Exit(1)
		}
		userWallet = wallet.CreateStripeWallet(cfg.Stripe.Secret, "usd")
	default:
		userWallet = wallet.CreateLedgerWallet(cfg.Wallet.BaseURL, cfg.Wallet.APIKey, cfg.Wallet.Timeout)
	}

	var funder wallet.Funder
	if cfg.Xendit.Secret != "" {
		funder = wallet.CreateXenditFunder(cfg.Xendit.Secret)
	}
	printSuccess(fmt.Sprintf("External clients ready (wallet backend: %s)", cfg.Wallet.Backend))

	printStep("5/8", "Initializing licensing providers...")
	rslProvider := licensing.WrapProvider(licensing.CreateRSLProvider(rightsClient))
	partnerProvider := licensing.WrapProvider(licensing.CreatePartnerProvider(rightsClient, cfg.Licensing.PartnerCatalog))
	fallbackProvider := licensing.WrapProvider(licensing.CreateFallbackProvider(rightsClient, cfg.Licensing.FallbackPriceCents))

	selector := licensing.CreateSelector(licensing.StaticResolver{}, rslProvider, partnerProvider, fallbackProvider)
	printSuccess("Licensing providers initialized (rsl, partner, fallback)")

	printStep("6/8", "Initializing stores and services...")
	contentStore := stores.CreateContentStore(database)
	entitlementStore := stores.CreateEntitlementStore(database)
	auditStore := stores.CreateAuditStore(database)

	registryService := services.CreateRegistryService(contentStore, rightsClient, contentCache)
	entitlementService := services.CreateEntitlementService(entitlementStore)
	purchaseService := services.CreatePurchaseService(registryService, entitlementService, selector, userWallet, auditStore, quoteCache)
	printSuccess("Services initialized")

	printStep("7/8", "Starting health and provider monitoring...")
	healthChecker := monitoring.CreateHealthChecker()
	healthChecker.AddCheck("database", sqlDB.PingContext)
	if redisCache != nil {
		healthChecker.AddCheck("redis", redisCache.Ping)
	}
	healthChecker.AddCheck("rights", rightsClient.Ping)
	healthChecker.AddCheck("wallet", func(ctx context.Context) error {
		if !userWallet.IsAvailable(ctx) {
			return errors.New("wallet backend unavailable")
		}
		return nil
	})

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	go monitoring.WatchProviders(monitorCtx, 30*time.Second, rslProvider, partnerProvider, fallbackProvider)
	printSuccess("Dependency health checks and provider watcher running")

	printStep("8/8", "Setting up HTTP server...")
	purchaseHandler := api.CreatePurchaseHandler(purchaseService)
	contentHandler := api.CreateContentHandler(registryService)
	entitlementHandler := api.CreateEntitlementHandler(entitlementService)
	healthHandler := api.CreateHealthHandler(healthChecker)

	router := mux.NewRouter()
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.CORSMiddleware([]string{"http://localhost:3000", "http://localhost:8080"}))
	router.Use(monitoring.InstrumentHandler)

	router.Handle("/metrics", monitoring.Handler()).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	apiRouter.HandleFunc("/health", healthHandler.HandleCheck).Methods("GET")
	apiRouter.HandleFunc("/quotes", purchaseHandler.HandleQuote).Methods("POST")
	apiRouter.HandleFunc("/content/register", contentHandler.HandleRegister).Methods("POST")
	apiRouter.HandleFunc("/entitlements", entitlementHandler.HandleCheck).Methods("GET")
	apiRouter.HandleFunc("/purchases", purchaseHandler.HandlePurchase).Methods("POST")

	if funder != nil {
		walletHandler := api.CreateWalletHandler(funder)
		apiRouter.HandleFunc("/wallet/topups", walletHandler.HandleTopUp).Methods("POST")
	}

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	printSuccess("HTTP server configured")

	fmt.Println()
	fmt.Printf("%s%s🎉 Payper is ready!%s\n", colorGreen, colorBold, colorReset)
	fmt.Printf("  %s•%s Health:       http://localhost:%s/api/v1/health\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Printf("  %s•%s Metrics:      http://localhost:%s/metrics\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Printf("  %s•%s Quotes:       http://localhost:%s/api/v1/quotes\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Printf("  %s•%s Purchases:    http://localhost:%s/api/v1/purchases\n", colorCyan, colorReset, cfg.Server.Port)
	fmt.Println()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(fmt.Sprintf("Server failed to start: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	printWarning("Shutting down Payper server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		printError(fmt.Sprintf("Server forced to shutdown: %v", err))
		os.Exit(1)
	}

	printSuccess("Payper server stopped gracefully")
}
