// Package main provides the main entry point for the Mitsumori LINE quote bot
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ymgch/mitsumori/app/handlers"
	"github.com/ymgch/mitsumori/app/middleware"
	"github.com/ymgch/mitsumori/app/router"
	"github.com/ymgch/mitsumori/app/scheduler"
	"github.com/ymgch/mitsumori/app/services"
	businessflow "github.com/ymgch/mitsumori/business_flow"
	"github.com/ymgch/mitsumori/config"
	"github.com/ymgch/mitsumori/pricing"
	"github.com/ymgch/mitsumori/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Application represents the main application structure
type Application struct {
	router     *router.FiberRouter
	config     *config.ProductionConfig
	server     *fiber.App
	stopFuncs  []func()
	closeStore func()
}

func main() {
	log.Println("Starting Mitsumori bot...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closeLogs, err := setupLogging(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if closeLogs != nil {
		defer closeLogs()
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// In-flight handlers are drained; the session store can go now.
	if app.closeStore != nil {
		app.closeStore()
	}

	log.Println("Server stopped")
}

// setupLogging points the standard logger at the configured sink. File
// output rotates through lumberjack so a long-lived deployment does not
// fill its disk. The returned closer flushes the rotator; it is nil for
// plain stdout logging.
func setupLogging(cfg config.LoggingConfig) (func(), error) {
	switch cfg.Output {
	case "", "stdout":
		return nil, nil
	case "file", "both":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("log output %q requires LOG_FILE_PATH", cfg.Output)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if cfg.Output == "both" {
			log.SetOutput(io.MultiWriter(os.Stdout, rotator))
		} else {
			log.SetOutput(rotator)
		}
		return func() { _ = rotator.Close() }, nil
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
}

// initializeSessionStore builds the session repository for the configured
// backend and verifies connectivity. The returned client is nil unless
// the backend is redis.
func initializeSessionStore(cfg config.SessionConfig) (repository.SessionRepository, *redis.Client, error) {
	switch cfg.Backend {
	case "", "memory":
		log.Println("Using in-memory session store")
		return repository.NewMemorySessionRepository(), nil, nil
	case "redis":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		// Override DB if provided in config
		if cfg.RedisDB > 0 {
			opt.DB = cfg.RedisDB
		}

		rc := redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx).Err(); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, opt.DB)
		return repository.NewRedisSessionRepository(rc, cfg.IdleTTL), rc, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// startSessionStoreHealthMonitor starts a background goroutine that
// periodically pings Redis to surface connectivity issues before a
// webhook delivery does. The returned cancel function stops the monitor.
func startSessionStoreHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeLineClient picks the real Messaging API client, or the mock
// when no channel token is configured (local development).
func initializeLineClient(cfg *config.LineConfig) services.LineClient {
	if cfg.ChannelToken == "" {
		log.Println("LINE channel token is empty, using mock LINE client")
		return services.NewMockLineClient()
	}
	return services.NewLineClient(cfg)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Load price tables
	rateTable, err := repository.LoadRateTable(cfg.Rates.Path)
	if err != nil {
		return nil, err
	}
	patternTable, err := repository.LoadPatternRateTable(cfg.Rates.PatternPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Rate tables loaded: %d quote rows, %d pattern rows", rateTable.Len(), patternTable.Len())

	engine := pricing.NewEngine(rateTable, patternTable)

	// Initialize session store
	sessionRepo, redisClient, err := initializeSessionStore(cfg.Session)
	if err != nil {
		return nil, err
	}

	// Initialize order ledger workbook
	ledger, err := services.NewExcelLedger(&cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to open order ledger: %w", err)
	}
	log.Printf("Order ledger ready at %s", cfg.Ledger.Path)

	// Initialize services
	lineClient := initializeLineClient(&cfg.Line)

	formsCfg := cfg.Forms
	if formsCfg.TokenSecret == "" {
		// Config validation requires a secret outside development, so an
		// empty one only occurs locally. Issued tokens die with the process.
		formsCfg.TokenSecret = uuid.New().String()
		log.Println("FORMS_TOKEN_SECRET is empty, using an ephemeral development secret")
	}
	formTokens, err := services.NewFormTokenService(&formsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize form token service: %w", err)
	}

	// Initialize flows
	estimateFlow := businessflow.NewEstimateFlow(
		sessionRepo,
		engine,
		ledger,
		lineClient,
		&cfg.Line,
		&formsCfg,
	)

	catalogFlow := businessflow.NewCatalogFlow(ledger, formTokens)

	webOrderFlow := businessflow.NewWebOrderFlow(ledger, engine, lineClient)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(estimateFlow)
	catalogFormHandler := handlers.NewCatalogFormHandler(catalogFlow)
	orderFormHandler := handlers.NewOrderFormHandler(webOrderFlow, &cfg.Line)

	// Initialize webhook signature middleware
	signatureMiddleware := middleware.NewSignatureMiddleware(&cfg.Line)

	// Initialize router
	appRouter := router.NewFiberRouter(
		cfg,
		webhookHandler,
		catalogFormHandler,
		orderFormHandler,
		signatureMiddleware,
	)

	var closeStore func()
	if redisClient != nil {
		stopMonitor := startSessionStoreHealthMonitor(context.Background(), redisClient, cfg.Session.CleanupInterval)
		stopFuncs = append(stopFuncs, stopMonitor)
		closeStore = func() { _ = redisClient.Close() }
	} else {
		// Redis sessions expire through key TTL; only the in-memory
		// store needs the background sweep.
		janitor := scheduler.NewSessionJanitor(sessionRepo, cfg.Session.IdleTTL, cfg.Session.CleanupInterval, log.Default())
		stopJanitor := janitor.Start(context.Background())
		stopFuncs = append(stopFuncs, stopJanitor)
	}

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:     fiberRouter,
		config:     cfg,
		server:     fiberRouter.GetApp(),
		stopFuncs:  stopFuncs,
		closeStore: closeStore,
	}

	return application, nil
}
