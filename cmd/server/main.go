package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/andikafarhan/coretan/internal/cleanup"
	"github.com/andikafarhan/coretan/internal/config"
	httpHandler "github.com/andikafarhan/coretan/internal/delivery/http"
	"github.com/andikafarhan/coretan/internal/delivery/ws"
	"github.com/andikafarhan/coretan/internal/middleware"
	"github.com/andikafarhan/coretan/internal/store"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	// Reload config after loading .env
	config.AppConfig = config.LoadFromEnv()
	cfg := config.AppConfig

	// Configuring Logging
	if cfg.LogLevel == "silent" || cfg.LogLevel == "off" {
		log.SetOutput(io.Discard)
	}

	// Rebuild the shared limiters with configured rates
	middleware.APILimiter = middleware.NewIPRateLimiter(cfg.RateLimitAPI, int(cfg.RateLimitAPI)*2)
	middleware.WebSocketLimiter = middleware.NewIPRateLimiter(cfg.RateLimitWS, int(cfg.RateLimitWS)*2)

	// Initialize dependencies
	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	registry := ws.NewRegistry()
	index := ws.NewIndex()
	hub := ws.NewHub()
	router := ws.NewRouter(registry, index, st, hub, cfg.JoinTimeout)
	hub.SetRouter(router)

	handler := httpHandler.NewHandler(st, hub)

	sweeper := cleanup.New(st, cleanup.Config{
		Interval: cfg.CleanupInterval,
		IdleTTL:  cfg.RoomIdleTTL,
	})
	sweeper.Start()
	defer sweeper.Stop()

	// Setup routes
	mux := http.NewServeMux()

	// WebSocket route with rate limiting
	mux.HandleFunc("/ws", middleware.RateLimitFunc(middleware.WebSocketLimiter, handler.HandleWebSocket))

	// API routes with rate limiting
	mux.HandleFunc("/api/rooms/create", middleware.RateLimitFunc(middleware.APILimiter, handler.HandleCreateRoom))
	mux.HandleFunc("/api/rooms/join", middleware.RateLimitFunc(middleware.APILimiter, handler.HandleJoinRoom))
	mux.HandleFunc("/api/rooms/", middleware.RateLimitFunc(middleware.APILimiter, handler.HandleRoomInfo))
	mux.HandleFunc("/api/health", handler.HandleHealth)

	// Apply security headers middleware to all requests
	securedHandler := middleware.SecurityHeaders(mux)

	// Create server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      securedHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Coretan running at http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
