package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crateapi/internal/app"
	"crateapi/internal/config"
	"crateapi/internal/lastshown"
	"crateapi/internal/logging"
	"crateapi/internal/recommend"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("open corpus store")
	}
	defer closeStore()

	client := app.NewCatalogClient(ctx, cfg.Catalog)
	feeds := app.NewEditorialSource(cfg.Editorial, cfg.Catalog.Timeout)
	service := app.NewRecommendService(cfg.Recommend, client, store, feeds)

	tracker := lastshown.NewTracker(cfg.Token.Secret, cfg.Token.TTL)
	handler := recommend.NewHTTPHandler(service, tracker, recommend.CookieOptions{
		Name:   cfg.Token.CookieName,
		Secure: cfg.Token.Secure,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(cfg.Security, handler, store),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logging.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("server error")
	}
	logging.Info().Msg("server stopped")
}
