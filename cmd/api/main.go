// @title           Bookshelf API
// @version         1.0
// @description     Books and heroes catalogue with users, posts and tags, token/session auth and throttling.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookshelf/internal/app"
	"bookshelf/internal/config"

	_ "bookshelf/docs"

	"github.com/pkg/errors"
	sloghttp "github.com/samber/slog-http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("could not load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)
	slog.Info("config loaded", slog.String("env", cfg.App.Env), slog.String("storage", cfg.Storage.Driver), slog.Bool("redis", cfg.Redis.Enabled()))

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("could not initialize app", slog.Any("error", err))
		os.Exit(1)
	}

	handler := sloghttp.Recovery(application.Router())
	handler = sloghttp.New(logger.WithGroup("http"))(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		slog.Info("HTTP server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("could not shut down HTTP server", slog.Any("error", err))
	}

	if err := application.Close(shutdownCtx); err != nil {
		slog.Error("could not close app", slog.Any("error", err))
	}
}

// newLogger logs text in dev and JSON elsewhere.
func newLogger(cfg config.AppConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.IsDev() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
