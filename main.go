package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/idaliopessoa/idDigital/config"
	"github.com/idaliopessoa/idDigital/handler"
	"github.com/idaliopessoa/idDigital/middleware"
	"github.com/idaliopessoa/idDigital/pkg/logger"
	"github.com/idaliopessoa/idDigital/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize document store
	var store service.DocumentStore
	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			cancel()
			slog.Error("failed to connect to mongo", "error", err)
			os.Exit(1)
		}
		if err := client.Ping(ctx, nil); err != nil {
			cancel()
			slog.Error("failed to ping mongo", "error", err)
			os.Exit(1)
		}
		cancel()
		defer client.Disconnect(context.Background())

		store = service.NewMongoDocumentStore(client, &cfg.Mongo)
		slog.Info("document store ready", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
	} else {
		// Storeless dev mode: records only live for the process lifetime
		store = service.NewMemoryDocumentStore()
		slog.Warn("no mongo uri configured, using in-memory document store")
	}

	// Initialize asset mirror (optional)
	var assetSvc *service.AssetService
	if cfg.Minio.Endpoint != "" {
		assetSvc, err = service.NewAssetService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize asset service", "error", err)
			os.Exit(1)
		}
		if err := assetSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure asset bucket", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("no minio endpoint configured, capture images will keep upstream URLs")
	}

	certfySvc := service.NewCertfyService(&cfg.Certfy)

	var mirror service.AssetMirror
	var resolver handler.AssetResolver
	if assetSvc != nil {
		mirror = assetSvc
		resolver = assetSvc
	}
	loader := service.NewDocumentLoader(store, certfySvc, mirror)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	documentHandler := handler.NewDocumentHandler(loader, resolver, store)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(100, time.Minute))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.GET("/documents/:id", documentHandler.Get)
		protected.GET("/documents/:id/cached", documentHandler.GetCached)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers for the card-viewer SPA
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
