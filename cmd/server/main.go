package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jypsi/cabs/internal/app"
	"github.com/jypsi/cabs/internal/config"
	"github.com/jypsi/cabs/internal/gateway"
	_ "github.com/jypsi/cabs/internal/gateway/ccavenue" // Registers the "ccavenue" provider
	"github.com/jypsi/cabs/internal/handler"
	"github.com/jypsi/cabs/internal/invoice"
	internalRedis "github.com/jypsi/cabs/internal/redis"
	"github.com/jypsi/cabs/internal/repository/postgres"
	"github.com/jypsi/cabs/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic comes first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	server, err := wireServer(db, redisClient, nrApp, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire server", zap.Error(err))
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *zap.Logger) (*http.Server, error) {
	// Redis stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Repositories.
	bookingRepo := postgres.NewBookingRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	rateRepo := postgres.NewRateRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)

	// Gateway provider.
	provider, err := gateway.New(cfg.Gateway)
	if err != nil {
		return nil, err
	}

	// Services.
	notificationService := service.NewNotificationService(service.NewLogSender(logger), logger)
	reconciler := service.NewReconciler(logger)
	fareService := service.NewFareService(rateRepo, cacheStore, cfg.Fare, logger)
	rateService := service.NewRateService(rateRepo, cacheStore, logger)
	driverService := service.NewDriverService(driverRepo, vehicleRepo, logger)
	bookingService := service.NewBookingService(db, bookingRepo, paymentRepo, vehicleRepo, fareService, reconciler, notificationService, cfg.Booking, logger)
	paymentService := service.NewPaymentService(db, paymentRepo, bookingRepo, driverRepo, reconciler, lockStore, notificationService, cfg.Booking, logger)
	gatewayService := service.NewGatewayService(db, paymentRepo, bookingRepo, provider, reconciler, notificationService, cfg.Booking, logger)
	invoiceService := service.NewInvoiceService(bookingRepo, invoice.NewPDFRenderer(), cfg.Invoice, cfg.Booking)

	// Handlers.
	bookingHandler := handler.NewBookingHandler(bookingService, paymentService, invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	gatewayHandler := handler.NewGatewayHandler(gatewayService)
	rateHandler := handler.NewRateHandler(rateService, fareService)
	driverHandler := handler.NewDriverHandler(driverService)

	router := app.NewRouter(app.RouterDeps{
		BookingHandler: bookingHandler,
		PaymentHandler: paymentHandler,
		GatewayHandler: gatewayHandler,
		RateHandler:    rateHandler,
		DriverHandler:  driverHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
