package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumichat/pushgate/internal/config"
	"github.com/lumichat/pushgate/internal/handler"
	"github.com/lumichat/pushgate/internal/middleware"
	"github.com/lumichat/pushgate/internal/model"
	"github.com/lumichat/pushgate/internal/repository"
	"github.com/lumichat/pushgate/internal/service"
	"github.com/lumichat/pushgate/pkg/firebase"
	"github.com/lumichat/pushgate/pkg/notification"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Pushgate API
// @version         1.0
// @description     Push notification dispatch for chat messages: FCM multicast with presence-aware suppression, unread badges and invalid-token cleanup.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting Pushgate API Server [env=%s]", cfg.App.Env)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, model.ErrorResponse{Error: "Method not allowed"})
	})

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "pushgate-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Swagger: static document plus UI, kept off the /api namespace
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// ==================== Firebase Backends ====================
	// The registry initializes at most once per process. A failed init is
	// memoized, so every dispatch call answers 500 with the diagnostics
	// instead of silently retrying.
	api := router.Group("/api/v1")

	ctx := context.Background()
	clients, err := firebase.Init(ctx, cfg.Firebase.ServiceAccountJSON)
	if err != nil {
		log.Printf("❌ Firebase init error: %v", err)
		initFailed := func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{
				Error:   "Init failed",
				Details: err.Error(),
			})
		}
		api.GET("/push", initFailed)
		api.POST("/push", initFailed)
	} else {
		// ==================== Initialize Layers ====================
		tokenRepo := repository.NewUserTokenRepository(clients.Firestore)

		var tokenStore repository.TokenStore = tokenRepo
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       0,
			})
			if _, err := rdb.Ping(ctx).Result(); err != nil {
				log.Printf("⚠️  Redis not available: %v (token cache disabled)", err)
			} else {
				tokenStore = repository.NewCachedTokenRepository(tokenRepo, repository.NewRedisCache(rdb), cfg.Redis.TokenTTL)
				log.Println("✅ Connected to Redis (token cache enabled)")
			}
		}

		presenceRepo := repository.NewPresenceRepository(clients.Firestore)
		messageRepo := repository.NewMessageRepository(clients.Firestore)
		sender := notification.NewSender(clients.Messaging)

		pushService := service.NewPushService(tokenStore, presenceRepo, messageRepo, sender)
		pushHandler := handler.NewPushHandler(pushService)

		// GET answers with a usage hint before any auth, mirroring liveness.
		api.GET("/push", pushHandler.Hint)
		api.POST("/push", middleware.AuthMiddleware(clients.Auth), pushHandler.Dispatch)
	}

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 Pushgate API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited gracefully")
}
