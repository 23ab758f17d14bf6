package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/handlers"
	"github.com/taskdeck/taskdeck-api/internal/logger"
	"github.com/taskdeck/taskdeck-api/internal/middleware"
	"github.com/taskdeck/taskdeck-api/internal/recurrence"
	"github.com/taskdeck/taskdeck-api/internal/store"
	"github.com/taskdeck/taskdeck-api/internal/taskflow"
	"github.com/taskdeck/taskdeck-api/internal/telemetry"
)

const serviceName = "taskdeck-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			_ = syncErr
		}
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("data_file", cfg.DataFile),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing, when enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Data file store
	fileStore := store.New(cfg.DataFile, zapLogger)
	if cfg.SlowWriteMS > 0 {
		fileStore.SetSlowWriteThreshold(time.Duration(cfg.SlowWriteMS) * time.Millisecond)
	}
	if err := fileStore.HealthCheck(); err != nil {
		zapLogger.Fatal("data_file_location_unusable", zap.Error(err))
	}
	zapLogger.Info("data_file_ready", zap.String("path", cfg.DataFile))

	// Business events: RabbitMQ when configured, structured log otherwise
	var publisher events.Publisher
	var brokerChecker handlers.BrokerChecker
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		publisher = amqpPublisher
		brokerChecker = amqpPublisher
		zapLogger.Info("connected_to_rabbitmq")
	} else {
		publisher = events.NewLogPublisher(zapLogger)
		zapLogger.Info("event_broker_not_configured_using_log_publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			zapLogger.Warn("failed_to_close_event_publisher", zap.Error(err))
		}
	}()

	// Task update pipeline with the recurrence collaborator
	pipeline := &taskflow.Pipeline{
		Next:   recurrence.NextOccurrence,
		Events: publisher,
		Logger: zapLogger,
	}

	groupHandler := handlers.NewGroupHandler(fileStore, publisher, zapLogger)
	taskHandler := handlers.NewTaskHandler(fileStore, pipeline, publisher, zapLogger)
	projectHandler := handlers.NewProjectHandler(fileStore, publisher, zapLogger)
	labelHandler := handlers.NewLabelHandler(fileStore, publisher, zapLogger)
	healthChecker := handlers.NewHealthChecker(fileStore, brokerChecker)

	r := mux.NewRouter()

	// Middleware; registration order is outermost first
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)

	groupsRouter := apiRouter.PathPrefix("/groups").Subrouter()
	groupHandler.RegisterRoutes(groupsRouter)

	tasksRouter := apiRouter.PathPrefix("/tasks").Subrouter()
	taskHandler.RegisterRoutes(tasksRouter)

	projectsRouter := apiRouter.PathPrefix("/projects").Subrouter()
	projectHandler.RegisterRoutes(projectsRouter)

	labelsRouter := apiRouter.PathPrefix("/labels").Subrouter()
	labelHandler.RegisterRoutes(labelsRouter)

	// Catch-all OPTIONS handler so preflight requests always get a response;
	// the CORS middleware sets the headers before this runs
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
