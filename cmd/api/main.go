package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"proai/internal/catalog"
	"proai/internal/history"
	"proai/internal/http/handlers"
	httpapi "proai/internal/http/httpapi"
	"proai/internal/infra"
	"proai/internal/payment"
	"proai/internal/providers/prompt"
	"proai/internal/registry"
	"proai/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	store, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer cleanup()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build prompt provider")
	}
	logger.Info().Str("provider", cfg.PromptProvider).Str("store", cfg.StoreDriver).Msg("services wired")

	reg := registry.New(store, cat)
	hist := history.New(store)
	payments := payment.NewMockProcessor()

	app := handlers.NewApp(cfg, logger, store, reg, cat, hist, payments, generator)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go watchAccounts(watchCtx, store, logger)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// watchAccounts logs account records changed outside the request path,
// typically by the accountctl CLI against the same store.
func watchAccounts(ctx context.Context, store storage.DurableStore, logger zerolog.Logger) {
	events, err := store.Watch(ctx, "account:")
	if err != nil {
		logger.Warn().Err(err).Msg("account watch unavailable")
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			logger.Debug().Str("key", ev.Key).Msg("account record changed")
		}
	}
}

func buildStore(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (storage.DurableStore, func(), error) {
	switch cfg.StoreDriver {
	case "file":
		store, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "postgres":
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := storage.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case "memory":
		logger.Warn().Msg("memory store selected, data will not survive restarts")
		return storage.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, errors.New("unsupported store driver " + cfg.StoreDriver)
	}
}

func buildGenerator(cfg *infra.Config) (prompt.Generator, error) {
	switch cfg.PromptProvider {
	case "gemini":
		return prompt.NewGeminiGenerator(prompt.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	default:
		return prompt.NewStaticGenerator(), nil
	}
}
