package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	docstore "github.com/denis-tintumapp/pinot/internal/adapters/docstore"
	api "github.com/denis-tintumapp/pinot/internal/adapters/http/api"
	app "github.com/denis-tintumapp/pinot/internal/app"
	"github.com/denis-tintumapp/pinot/internal/config"
	scoring "github.com/denis-tintumapp/pinot/internal/domain/scoring"
	"github.com/denis-tintumapp/pinot/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to build document store", logger.Error(err))
		return
	}
	log.Info(ctx, "document store ready", logger.String("backend", cfg.StoreBackend))

	engine := scoring.New(
		scoring.WithCorrectPoints(cfg.CorrectPoints),
		scoring.WithBonusPoints(cfg.FastBonusPoints, cfg.SlowBonusPoints),
		scoring.WithBonusWindows(
			time.Duration(cfg.FastBonusMinutes)*time.Minute,
			time.Duration(cfg.SlowBonusMinutes)*time.Minute,
		),
	)
	svc := app.New(store,
		app.WithLogger(log),
		app.WithScoringEngine(engine),
		app.WithTimerTick(time.Duration(cfg.TimerTickMS)*time.Millisecond),
	)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, api.WithStandingsLimit(cfg.MaxStandingsLimit)).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	log.Info(ctx, "server stopped")
}

func buildStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	if cfg.StoreBackend == config.BackendMongo {
		return docstore.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return docstore.NewMemoryStore(), nil
}
