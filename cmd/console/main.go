package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral_console/internal/config"
	"referral_console/internal/credstore"
	"referral_console/internal/gateway"
	"referral_console/internal/handler"
	"referral_console/internal/middleware"
	"referral_console/internal/model"
	"referral_console/internal/store"
	"referral_console/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog := logger.New(cfg.LogLevel, cfg.LogEncoding)
	defer zlog.Sync()

	// --- Local credential store ---
	creds, err := credstore.Open(cfg.StateDir)
	if err != nil {
		zlog.Fatal("failed to open credential store", zap.Error(err))
	}
	defer creds.Close()

	// --- Gateway + stores ---
	gw := gateway.New(cfg.GatewayBaseURL, cfg.GatewayTimeout)
	sessions := store.NewSessionStore(gw, creds, zlog)
	candidates := store.NewCandidateStore(gw, sessions, zlog)

	// The candidate store follows the session: refresh on login, empty on
	// logout. Subscribed once, here, before anything can authenticate.
	sessions.OnAuthenticated(func(ctx context.Context, user *model.User) {
		candidates.LoadForSession(ctx, user)
	})
	sessions.OnLogout(candidates.Reset)

	// Restore a persisted session, then warm the candidate list. Both are
	// best-effort; a dead gateway just leaves the list empty.
	if sessions.Restore() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GatewayTimeout)
		candidates.LoadForSession(ctx, sessions.CurrentUser())
		cancel()
	}

	// --- Setup Gin Router ---
	router := gin.Default()
	router.Use(middleware.RequestID())

	// Simple CORS middleware (allow all for development)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// --- Gates ---
	authMW := middleware.AuthRequired(sessions)
	adminMW := middleware.AdminRequired(sessions)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(sessions)
	candidateHandler := handler.NewCandidateHandler(candidates)

	// --- Register Routes ---
	apiGroup := router.Group("/api/v1")
	authHandler.RegisterAuthRoutes(apiGroup, authMW)
	candidateHandler.RegisterCandidateRoutes(apiGroup, sessions, authMW, adminMW)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"authenticated": sessions.IsAuthenticated(),
		})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		zlog.Info("console starting", zap.String("port", cfg.ServerPort), zap.String("gateway", cfg.GatewayBaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("listen failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("forced to shutdown", zap.Error(err))
	}

	zlog.Info("console exiting")
}
