package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/cache"
	"server/internal/engine"
	"server/internal/extract"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/orchestrator"
	"server/internal/storage"
	"server/internal/validate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	engineClient, err := engine.NewClient(engine.Options{
		BaseURL:          cfg.EngineBaseURL,
		HTTPClient:       &http.Client{Timeout: cfg.EngineTimeout},
		PreflightTimeout: cfg.PreflightTimeout,
		Logger:           &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure engine client")
	}

	artifactStore, err := storage.NewFileStore(cfg.ArtifactDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure artifact storage")
	}

	store := cache.NewStore(cache.Options{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Logger:        logger,
	})

	executor := orchestrator.NewExecutor(orchestrator.Options{
		Engine:    engineClient,
		Extractor: extract.NewExtractor(artifactStore, logger),
		Validator: validate.NewValidator(logger),
		Cache:     store,
		Config:    cfg,
		Logger:    logger,
	})

	app := handlers.NewApp(executor, store, engineClient, logger)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
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
