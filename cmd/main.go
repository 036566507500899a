package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"google.golang.org/grpc"

	"commerce-service/internal/api"
	"commerce-service/internal/auth"
	"commerce-service/internal/config"
	"commerce-service/internal/service"
	"commerce-service/internal/store"
)

const (
	defaultAppName = "CommerceService" // App name for logger
)

func main() {
	if err := godotenv.Load(); err != nil {
		// The application can still proceed if environment variables are set in other ways.
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
	log.SetPrefix(fmt.Sprintf("[%s] ", defaultAppName))
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds)
	logger.Println("INFO: Starting service...")

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("FATAL: Error loading configuration: %v", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, LogLevel: %s", cfg.AppEnv, cfg.LogLevel)

	// --- Database Connection ---
	db, err := openDB(cfg.Postgres)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize database connection: %v", err)
	}
	logger.Println("INFO: Database connection established and configured successfully.")

	if cfg.Migrations.AutoMigrate {
		if err := store.Migrate(db, logger, 0); err != nil {
			logger.Fatalf("FATAL: Failed to apply migrations: %v", err)
		}
	}

	dbStore := store.NewPostgresStore(db)

	// --- Workflows ---
	orderService := service.NewOrderService(dbStore)
	productService := service.NewProductService(dbStore)
	categoryService := service.NewCategoryService(dbStore)
	authenticator := auth.NewBasicAuthenticator(dbStore)
	healthReporter := api.NewHealthReporter(dbStore)
	healthReporter.Check(context.Background())

	// --- Setup & Start HTTP Server ---
	httpAPIHandler := api.NewHTTPHandler(orderService, productService, categoryService, authenticator, healthReporter)
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger, cfg.HttpServer.TimeoutRequest)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(healthReporter.UnaryInterceptor()))
	healthReporter.Register(grpcServer)
	logger.Println("INFO: gRPC health check and reflection services registered.")

	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.Fatalf("FATAL: Failed to listen for gRPC on port %s: %v", cfg.GrpcServer.Port, err)
	}

	go func() {
		logger.Printf("INFO: gRPC server listening on port %s", cfg.GrpcServer.Port)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatalf("FATAL: gRPC server Serve error: %v", err)
		}
		logger.Println("INFO: gRPC server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, healthReporter, dbStore, shutdownComplete)

	<-shutdownComplete // Block until graceful shutdown is complete
	logger.Println("INFO: Service shutdown sequence finished.")
}

func openDB(pc config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", pc.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(pc.MaxOpenConns)
	db.SetMaxIdleConns(pc.MaxIdleConns)
	db.SetConnMaxLifetime(pc.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger, requestTimeout time.Duration) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger) // Chi's request logger
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))
	logger.Println("INFO: Base HTTP middleware registered.")
}

func waitForShutdown(
	logger *log.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	healthReporter *api.HealthReporter,
	dbStore *store.PostgresStore,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Tell health checkers first so load balancers drain us.
	healthReporter.Shutdown()

	logger.Println("INFO: Attempting to gracefully shut down gRPC server...")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	select {
	case <-stoppedGrpc:
		logger.Println("INFO: gRPC server gracefully shut down.")
	case <-shutdownCtx.Done():
		logger.Printf("WARN: gRPC server graceful shutdown timed out: %v", shutdownCtx.Err())
		grpcServer.Stop()
		logger.Println("INFO: gRPC server forced stop.")
	}

	if err := dbStore.Close(); err != nil {
		logger.Printf("WARN: Error closing database connection: %v", err)
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}
