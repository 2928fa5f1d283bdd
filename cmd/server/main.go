package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appevent "github.com/erp/fulfillment/internal/application/event"
	appfulfillment "github.com/erp/fulfillment/internal/application/fulfillment"
	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/domain/shared"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/cache"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/infrastructure/event"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/infrastructure/persistence"
	"github.com/erp/fulfillment/internal/infrastructure/telemetry"
	"github.com/erp/fulfillment/internal/interfaces/http/handler"
	"github.com/erp/fulfillment/internal/interfaces/http/middleware"
	"github.com/erp/fulfillment/internal/interfaces/http/router"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			ERP Fulfillment API
//	@version		1.0
//	@description	Order fulfillment lifecycle: submission, warehouse progress, shipment, invoicing and payment

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	var (
		issueToken string
		tokenUser  string
		tokenComp  string
	)
	flag.StringVar(&issueToken, "issue-token", "", "Print a bearer token for the given role and exit (development only)")
	flag.StringVar(&tokenUser, "token-user", "", "User id for -issue-token (random when empty)")
	flag.StringVar(&tokenComp, "token-company", "", "Company id for -issue-token (random when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if issueToken != "" {
		if err := printToken(cfg.JWT, issueToken, tokenUser, tokenComp); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// Log export must be ready before anything else logs so the bridge sees it
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log = logProvider.Bridge(log, zapcore.InfoLevel)

	log.Info("Starting fulfillment service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileMemory:   true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Telemetry.ProfilingEnabled {
		tracerProvider.EnableSpanProfiles()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormLevel),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:     cfg.Database.DBName,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	metrics, err := telemetry.NewFulfillmentMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create fulfillment metrics", zap.Error(err))
	}

	serializer := event.NewEventSerializer()
	event.RegisterFulfillmentEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(serializer).WithMaxRetries(cfg.Outbox.MaxRetries)

	scope := persistence.NewGormTransactionScope(db.DB, outboxPublisher, persistence.LockRetryPolicyFrom(cfg.Fulfillment))
	audit := appfulfillment.NewAuditTrail(
		persistence.NewGormOrderRepository(db.DB),
		persistence.NewGormAuditLogRepository(db.DB),
		log,
	)
	lifecycle := appfulfillment.NewLifecycleService(scope, audit, appfulfillment.NewOrderNumberGenerator(),
		appfulfillment.ServiceConfig{InvoiceNumberRetries: cfg.Fulfillment.InvoiceNumberRetries}, log).
		WithMetrics(metrics)
	warehouse := appfulfillment.NewWarehouseService(scope, audit, log).WithMetrics(metrics)
	payments := appfulfillment.NewPaymentService(scope, audit, log).WithMetrics(metrics)

	// Outbox relay: pending rows -> in-memory bus -> notification delivery
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	eventBus := event.NewInMemoryEventBus(log)
	dispatcher := appfulfillment.NewNotificationDispatcher(log)
	eventBus.Subscribe(
		event.NewIdempotentHandler(dispatcher, idempotencyStore, shared.DefaultIdempotencyConfig(), log),
		dispatcher.EventTypes()...,
	)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	outboxRepo := event.NewGormOutboxRepository(db.DB)
	var outboxProcessor *event.OutboxProcessor
	if cfg.Outbox.ProcessorEnabled {
		processorConfig := event.ProcessorConfigFrom(cfg.Outbox)
		outboxProcessor = event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorConfig, log).
			WithMetrics(metrics)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		TokenValidator: auth.NewJWTService(cfg.JWT),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          meter,
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
		Fulfillment:    handler.NewFulfillmentHandler(lifecycle, warehouse, payments, audit),
		Outbox:         handler.NewOutboxHandler(appevent.NewDeadLetterService(outboxRepo, log)),
		System: handler.NewSystemHandler(map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
		}),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if outboxProcessor != nil {
		if err := outboxProcessor.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// printToken issues a bearer token for local testing
func printToken(cfg config.JWTConfig, role, userID, companyID string) error {
	actor := fulfillment.AuthContext{Role: fulfillment.Role(role)}
	if !actor.Role.IsValid() {
		return fmt.Errorf("unknown role %q", role)
	}
	var err error
	if actor.UserID, err = parseOrNewUUID(userID); err != nil {
		return fmt.Errorf("invalid -token-user: %w", err)
	}
	if actor.CompanyID, err = parseOrNewUUID(companyID); err != nil {
		return fmt.Errorf("invalid -token-company: %w", err)
	}

	token, expiresAt, err := auth.NewJWTService(cfg).GenerateToken(actor)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Printf("user_id:    %s\ncompany_id: %s\nrole:       %s\nexpires_at: %s\n\n%s\n",
		actor.UserID, actor.CompanyID, actor.Role, expiresAt.Format(time.RFC3339), token)
	return nil
}

func parseOrNewUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(s)
}
