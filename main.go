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

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"slotbook/config"
	"slotbook/cron"
	"slotbook/database"
	"slotbook/database/repository"
	"slotbook/handlers"
	"slotbook/middleware"
	"slotbook/routes"
	"slotbook/services/booking"
	"slotbook/services/payment"
	"slotbook/services/tasks"
	"slotbook/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("main: failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Booking store.
	var (
		repo        repository.BookingRepository
		mongoClient *mongo.Client
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("main: using in-memory booking store, data will not survive a restart")
		repo = repository.NewMemoryBookingRepo(cfg.SlotDuration)
	default:
		mongoClient, err = database.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("main: failed to initialize database", zap.Error(err))
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		repo = repository.NewMongoBookingRepo(mongoClient.Database(cfg.DatabaseName), cfg.SlotDuration)
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("main: failed to ensure booking indexes", zap.Error(err))
	}

	// Redis-backed availability cache and completion queue.
	var cache booking.AvailabilityCache = booking.NoopAvailabilityCache{}
	var scheduler booking.CompletionScheduler = booking.NoopCompletionScheduler{}
	var (
		redisClients []*redis.Client
		asynqClient  *asynq.Client
		queueOpts    asynq.RedisClientOpt
	)
	if cfg.RedisEnabled {
		cacheClient, err := utils.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB)
		if err != nil {
			logger.Warn("main: availability cache disabled", zap.Error(err))
		} else {
			redisClients = append(redisClients, cacheClient)
			cache = booking.NewRedisAvailabilityCache(cacheClient, cfg.AvailabilityCacheTTL, logger)
			defer cacheClient.Close()
		}

		queueOpts = asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisQueueDB}
		asynqClient = asynq.NewClient(queueOpts)
		defer asynqClient.Close()
		scheduler = tasks.NewAsynqCompletionScheduler(asynqClient)
	} else {
		logger.Warn("main: redis disabled, availability is uncached and bookings will not auto-complete")
	}

	// Payments.
	if cfg.StripeSecretKey == "" {
		logger.Warn("main: STRIPE_SECRET_KEY is not set, payment calls will fail")
	}
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, nil, logger)
	coordinator := booking.NewPaymentCoordinator(repo, gateway, scheduler, booking.PaymentConfig{
		AmountMinor:  cfg.BookingPriceMinor,
		Currency:     cfg.PaymentCurrency,
		MethodTypes:  cfg.PaymentMethodTypes,
		Timeout:      cfg.PaymentTimeout,
		SlotDuration: cfg.SlotDuration,
	}, logger)

	bookingService := booking.NewBookingService(repo, coordinator, cache, booking.SlotConfig{
		SlotDuration:  cfg.SlotDuration,
		BusinessStart: cfg.BusinessStart,
		BusinessEnd:   cfg.BusinessEnd,
		MaxRangeDays:  cfg.MaxRangeDays,
	}, logger)

	var worker *asynq.Server
	if asynqClient != nil {
		worker = cron.InitCompletionWorker(ctx, queueOpts, bookingService, logger)
	}

	health := utils.NewHealthMonitor(redisClients, mongoClient, utils.HealthCheckInterval)
	health.Start(ctx)

	tokens := utils.NewTokenManager(cfg.JWTSecret)
	if !tokens.Enabled() {
		logger.Warn("main: JWT_SECRET is not set, /api/bookings/booked is disabled")
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(bookingService, logger),
		handlers.HealthHandler(health),
		tokens,
	)
	routes.RegisterRoutes(router, handlerBundle, cfg.CORSAllowOrigins)

	// Start the HTTP server.
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("main: starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	stop()

	logger.Info("main: server stopped gracefully")
}
