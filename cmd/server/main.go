// Wheel of Mischief - spin-a-challenge server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/mischief-wheel/internal/api"
	"github.com/ashureev/mischief-wheel/internal/config"
	"github.com/ashureev/mischief-wheel/internal/dataset"
	"github.com/ashureev/mischief-wheel/internal/domain"
	"github.com/ashureev/mischief-wheel/internal/identity"
	"github.com/ashureev/mischief-wheel/internal/live"
	"github.com/ashureev/mischief-wheel/internal/middleware"
	"github.com/ashureev/mischief-wheel/internal/session"
	"github.com/ashureev/mischief-wheel/internal/store"
	"github.com/ashureev/mischief-wheel/internal/wheel"
	"github.com/ashureev/mischief-wheel/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// An empty or invalid dataset is fatal: the wheel cannot select without segments.
	source, err := dataset.Load(cfg.ChallengesPath)
	if err != nil {
		slog.Error("Failed to load challenge dataset", "error", err, "path", cfg.ChallengesPath)
		os.Exit(1)
	}

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	set, err := loadCatalog(context.Background(), repo, source)
	if err != nil {
		slog.Error("Failed to load challenge catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("Challenge catalog ready", "challenges", set.Len(), "segment_size", wheel.SegmentSize(set.Len()))

	sm := session.NewManager(func() *wheel.Controller {
		return wheel.NewController(set, wheel.Options{SpinDelay: cfg.SpinDelay})
	})
	defer sm.CloseAll()

	// Initialize handlers.
	baseHandler := api.NewHandler(sm, set)
	wheelHandler := api.NewWheelHandler(baseHandler)
	healthHandler := api.NewHealthHandler(repo, sm)
	wsHandler := live.NewWebSocketHandler(sm, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	healthHandler.RegisterHealth(r)
	wheelHandler.RegisterRoutes(r)
	r.Get("/ws/wheel", wsHandler.ServeHTTP)

	// Serve embedded page (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WebSocket streams are long-lived, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartTTLWorker(ctx, sm, cfg.SessionTTL, cfg.SweepInterval)

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// loadCatalog seeds the catalog from the dataset and reads it back once.
// The wheel is built from what the store returns.
func loadCatalog(ctx context.Context, repo store.Repository, source *domain.ChallengeSet) (*domain.ChallengeSet, error) {
	if err := repo.SeedChallenges(ctx, source.All()); err != nil {
		return nil, err
	}
	challenges, err := repo.ListChallenges(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewChallengeSet(challenges)
}
