package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sjperalta/sacco-api/docs" // Swagger docs
	"github.com/sjperalta/sacco-api/internal/config"
	"github.com/sjperalta/sacco-api/internal/database"
	"github.com/sjperalta/sacco-api/internal/handlers"
	"github.com/sjperalta/sacco-api/internal/jobs"
	"github.com/sjperalta/sacco-api/internal/messaging"
	"github.com/sjperalta/sacco-api/internal/middleware"
	"github.com/sjperalta/sacco-api/internal/models"
	"github.com/sjperalta/sacco-api/internal/repository"
	"github.com/sjperalta/sacco-api/internal/services"
	"github.com/sjperalta/sacco-api/internal/storage"
	"github.com/sjperalta/sacco-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title SACCO API
// @version 1.0
// @description Back office for a savings and credit co-operative: members, savings ledger, loans, repayments and WhatsApp reminders
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.OpsEmail == "" {
		logger.Warn("Batch summary emails disabled: OPS_EMAIL not set")
	} else if cfg.ResendAPIKey == "" {
		logger.Warn("OPS_EMAIL is set but RESEND_API_KEY is not; batch summaries will fail")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Schedule cache
	cache := repository.NewScheduleCache(cfg.RedisAddr, cfg.ScheduleCacheTTL)
	if err := cache.Ping(context.Background()); err != nil {
		logger.Warn("Schedule cache unreachable, schedules will be recomputed", "addr", cfg.RedisAddr, "error", err)
	}

	repos := repository.NewRepositories(db)
	transport := newTransport(cfg)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, cache, transport, worker, store, cfg, db)
	scheduleJobs(worker, svcs, cfg)

	h := handlers.NewHandlers(svcs, db)
	router := setupRouter(h, svcs.Auth, cfg)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Bulk sends are paced and run inside the request
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if err := cache.Close(); err != nil {
		logger.Warn("Closing schedule cache failed", "error", err)
	}

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// newTransport uses the HTTP gateway when one is configured and logs
// messages otherwise
func newTransport(cfg *config.Config) messaging.Transport {
	if cfg.WhatsAppGatewayURL == "" {
		logger.Warn("WHATSAPP_GATEWAY_URL not set, messages will only be logged")
		return messaging.NewLogTransport()
	}
	logger.Info("Using WhatsApp gateway", "url", cfg.WhatsAppGatewayURL, "session", cfg.WhatsAppSession)
	return messaging.NewGatewayClient(messaging.GatewayConfig{
		BaseURL: cfg.WhatsAppGatewayURL,
		Session: cfg.WhatsAppSession,
		APIKey:  cfg.WhatsAppAPIKey,
	}, nil)
}

func setupRouter(h *handlers.Handlers, tokens middleware.TokenParser, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	// The pairing stream must not be buffered
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/whatsapp/stream"})))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers.RegisterRoutes(router.Group("/api/v1"), h, tokens, cfg.WhatsAppAPIKey)
	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	if cfg.ReminderInterval <= 0 {
		logger.Info("Scheduled loan reminders disabled")
		return
	}

	worker.ScheduleEvery("loan-reminders", cfg.ReminderInterval, func(ctx context.Context) error {
		logger.Info("[Job] Sending loan reminders...")
		result, err := svcs.Message.SendLoanReminders(ctx, models.SystemActor, "", nil)
		if errors.Is(err, services.ErrNoRecipients) {
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("[Job] Loan reminders sent", "batch_id", result.BatchID, "sent", len(result.Sent), "failed", len(result.Failed))
		return nil
	})

	logger.Info("Scheduled recurring jobs", "reminder_interval", cfg.ReminderInterval)
}
