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

	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"

	"github.com/quizforge/backend/internal/api"
	"github.com/quizforge/backend/internal/infrastructure/config"
	"github.com/quizforge/backend/internal/infrastructure/redisstore"
	"github.com/quizforge/backend/internal/service"
	"github.com/quizforge/backend/internal/source"
	"github.com/quizforge/backend/internal/store"
	"github.com/quizforge/backend/internal/telegram"

	_ "github.com/quizforge/backend/docs" // generated swagger docs
)

// @title           Quizforge API
// @version         1.0
// @description     Topic quizzes with mastery tracking: questions you answer correctly five times stop showing up for a year.

// @host      localhost:8080
// @BasePath  /

const cleanupInterval = 10 * time.Minute

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	masteryBackend, closeBackend, err := newMasteryBackend(ctx, cfg, db)
	if err != nil {
		logger.Error("failed to set up mastery backend", "backend", cfg.MasteryBackend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	fallback := source.NewFallback(cfg.FallbackDir)
	questions := source.NewChain(source.NewStoreSource(db), fallback, logger, source.WithLoadDelay(cfg.LoadDelay))
	quiz := service.NewQuizService(db, questions, masteryBackend, logger, cfg.SessionTTL)
	handler := api.NewHandler(db, quiz, fallback, logger)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler)

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: Logging → CORS → Learner → mux ────────────
	chain := api.Logging(logger)(api.CORS(cfg.CORSOrigin)(api.Learner(mux)))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "address", cfg.ServerAddress, "mastery_backend", cfg.MasteryBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		quiz.RunCleanup(gctx, cleanupInterval)
		return nil
	})

	if cfg.TelegramToken != "" {
		bot, err := telegram.New(cfg.TelegramToken, quiz, fallback, logger.With("component", "telegram"))
		if err != nil {
			logger.Error("failed to start telegram bot", "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return bot.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// newMasteryBackend picks where learners' counters live. The returned func
// releases the backend's resources.
func newMasteryBackend(ctx context.Context, cfg *config.Config, db *store.SQLiteStore) (service.MasteryBackend, func(), error) {
	switch cfg.MasteryBackend {
	case config.MasteryRedis:
		client, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return service.MasteryBackendFunc(client.Persistence), func() { client.Close() }, nil
	case config.MasteryMemory:
		return service.NewMemoryMastery(), func() {}, nil
	default:
		return service.MasteryBackendFunc(db.MasteryPersistence), func() {}, nil
	}
}
