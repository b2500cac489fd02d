package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"route-map-client/internal/adapters/optimizer"
	"route-map-client/internal/adapters/seed"
	"route-map-client/internal/api"
	"route-map-client/internal/config"
	"route-map-client/internal/platform/logging"
	"route-map-client/internal/services"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires the HTTP optimizer adapter behind the service port and starts the map backend.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg, err := config.Load(getEnv("CONFIG_PATH", ""))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := optimizer.NewHTTPOptimizer(cfg.Optimizer.BaseURL, cfg.RequestTimeout())
	if err != nil {
		return err
	}

	poller := services.NewPoller(provider, services.PollerConfig{
		Interval:             cfg.PollInterval(),
		MaxConsecutiveErrors: cfg.Poll.MaxConsecutiveErrors,
		MaxWait:              cfg.PollMaxWait(),
		BaseContext:          ctx,
		Logger:               logger,
	})
	session := services.NewSession(services.NewSubmitter(provider, logger), poller, logger)
	defer session.Close()

	if err := seedInput(session, cfg.Input.SeedPath, logger); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           api.NewRouter(session, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("optimizer", cfg.Optimizer.BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		session.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Load the initial editor content. A seed that does not parse is kept as
// editor text but leaves the map empty.
func seedInput(session *services.Session, path string, logger *zap.Logger) error {
	raw, fromFile, err := seed.LoadInput(path)
	if err != nil {
		return err
	}
	if !fromFile {
		logger.Info("seed file not found, using built-in stops", zap.String("path", path))
	}

	if err := session.UpdateInput(raw); err != nil {
		logger.Warn("seed input rejected", zap.String("path", path), zap.Error(err))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
