package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/tasks-api/tasks-service/config"
	"github.com/chepyr/tasks-api/tasks-service/handlers"
	"github.com/chepyr/tasks-api/tasks-service/service"
	"github.com/chepyr/tasks-api/tasks-service/store"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	handler := initHandlers(cfg)
	server := initServer(cfg, handler)
	startServer(server, handler)
}

func initHandlers(cfg *config.Config) *handlers.Handler {
	repo := store.NewTaskRepository(cfg.MaxRecords)
	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET not set, trusting the x-user-id header")
	}
	return &handlers.Handler{
		Tasks:          service.NewTaskService(repo),
		RateLimiter:    handlers.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		WSHub:          handlers.NewWSHub(),
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
	}
}

func initServer(cfg *config.Config, handler *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func startServer(server *http.Server, handler *handlers.Handler) {
	log.Printf("Starting tasks server on %s", server.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	handler.WSHub.CloseAll()
	handler.RateLimiter.Stop()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
