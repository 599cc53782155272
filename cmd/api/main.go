package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkhub/internal/config"
	"github.com/hamed0406/checkhub/internal/httpapi"
	apimw "github.com/hamed0406/checkhub/internal/httpapi/middleware"
	"github.com/hamed0406/checkhub/internal/ingest"
	"github.com/hamed0406/checkhub/internal/logging"
	"github.com/hamed0406/checkhub/internal/notify"
	"github.com/hamed0406/checkhub/internal/repo/dial"
	"github.com/hamed0406/checkhub/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := dial.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}
	defer store.Close()

	hub := notify.NewHub(cfg.WSSendBuffer, logger)
	defer hub.Close()
	observers := notify.Multi{hub}
	if slack := notify.NewSlack(cfg.SlackWebhook, cfg.NotifyStatuses); slack != nil {
		observers = append(observers, notify.Async{Next: slack, Timeout: 10 * time.Second, Log: logger})
	}

	api := httpapi.NewServer(logger, ingest.New(store, observers, logger), report.New(store), hub, cfg.ReportDir)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api_shutdown", zap.Error(err))
		}
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr),
		zap.Bool("auth", len(keys.Public)+len(keys.Admin) > 0),
		zap.Bool("slack", cfg.SlackWebhook != ""))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_failed", zap.Error(err))
	}
	logger.Info("api_stopped")
}
