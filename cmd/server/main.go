package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MarcelKueck/shareyourspace-mvp/internal/config"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/mail"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/server"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/storage/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	loadLocalEnv(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("init database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var mailer mail.Mailer
	if cfg.SMTPConfigured() {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logger.Warn("SMTP not configured; outgoing mail will be logged only")
		mailer = mail.NewLogMailer(logger)
	}

	srv := server.New(cfg, store, mailer, logger)

	go func() {
		logger.Info("ShareYourSpace backend listening", "addr", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}

func loadLocalEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found; relying on existing environment")
	}
}
