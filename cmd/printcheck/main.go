package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printcheck/internal/config"
	"printcheck/internal/handler"
	"printcheck/internal/service"
	"printcheck/internal/worker"
)

func main() {
	cfg := config.New()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if missing := cfg.Missing(); len(missing) > 0 {
		slog.Warn("credentials not configured, platform endpoints will answer 400", "missing", missing)
	}

	// Services
	platform := service.NewPlatformClient(cfg.BaseURL, cfg.MerchantID, cfg.AccessToken, cfg.RequestTimeout)
	printSvc := service.NewPrintService(platform)
	orderSvc := service.NewOrderService(platform, printSvc)
	poller := worker.NewPrintEventPoller(platform, cfg.PollDelay, cfg.PollAttempts)
	diagSvc := service.NewDiagnosticService(platform, printSvc, poller)

	// Router
	r := handler.NewRouter(cfg, handler.Services{
		Orders:      orderSvc,
		Prints:      printSvc,
		Diagnostics: diagSvc,
	})

	srv := handler.NewServer(cfg.Addr(), r)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.Addr(), "base_url", cfg.BaseURL, "merchant", cfg.MerchantID)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
