package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marshlink/internal/config"
	"marshlink/internal/database"
	"marshlink/internal/engine"
	"marshlink/internal/handlers"
	"marshlink/internal/middleware"
	"marshlink/internal/realtime"
	"marshlink/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := database.NewMongoStore(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v", err)
		}
	}()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}
	}

	auth, err := middleware.NewAuth(cfg.Auth.Secret, cfg.Auth.TokenExpiration)
	if err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	metrics := utils.NewMetricsCollector()
	hub := realtime.NewHub()
	go hub.Run()

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, store, hub, metrics)

	server := handlers.NewServer(system, eng, metrics, store, hub, auth, cfg.Server.RequestTimeout)
	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)

	public := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.ApplyCORS(h, corsConfig)
	}
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.ApplyCORS(auth.ApplyJWT(h), corsConfig)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", public(server.HandleHealth()))
	if cfg.Server.MetricsEnabled {
		mux.HandleFunc("/metrics", public(server.HandleMetrics()))
	}

	mux.HandleFunc("/user/register", public(server.HandleRegister()))
	mux.HandleFunc("/user/login", public(server.HandleLogin()))
	mux.HandleFunc("/user/profile", protected(server.HandleUserProfile()))

	mux.HandleFunc("/communities", protected(server.HandleCommunities()))
	mux.HandleFunc("/communities/members", protected(server.HandleCommunityMembers()))
	mux.HandleFunc("/communities/membership", protected(server.HandleCommunityMembership()))

	mux.HandleFunc("/posts", protected(server.HandlePost()))
	mux.HandleFunc("/posts/community", protected(server.HandleCommunityPosts()))
	mux.HandleFunc("/posts/recent", protected(server.HandleRecentPosts()))
	mux.HandleFunc("/posts/vote", protected(server.HandlePostVote()))

	mux.HandleFunc("/comments", protected(server.HandleComment()))
	mux.HandleFunc("/comments/post", protected(server.HandleGetPostComments()))
	mux.HandleFunc("/comments/vote", protected(server.HandleCommentVote()))

	// Websocket auth happens during the upgrade, via token query param.
	mux.HandleFunc("/ws", public(server.HandleWebSocket()))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
