package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aksjevakt/backend/internal/api"
	"github.com/aksjevakt/backend/internal/config"
	"github.com/aksjevakt/backend/internal/i18n"
	"github.com/aksjevakt/backend/internal/logger"
	"github.com/aksjevakt/backend/internal/marketdata"
	"github.com/aksjevakt/backend/internal/metrics"
	"github.com/aksjevakt/backend/internal/middleware"
	"github.com/aksjevakt/backend/internal/repository"
	"github.com/aksjevakt/backend/internal/service"
	"github.com/aksjevakt/backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	i18n.Init(cfg.LocalesDir)

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		zlog.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		zlog.Fatal("failed to ping MongoDB", zap.Error(err))
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	hub := ws.NewHub(zlog)
	go hub.Run(rootCtx)
	wsHandler := ws.NewWebSocketHandler(hub, zlog)

	alertRepo := repository.NewAlertRepository(client, cfg.MongoDB, "price_alerts")
	userRepo := repository.NewUserRepository(client, cfg.MongoDB, "users")
	settingsRepo := repository.NewSettingsRepository(client, cfg.MongoDB, "notification_settings")
	watchlistRepo := repository.NewWatchlistRepository(client, cfg.MongoDB, "watchlists")
	logRepo := repository.NewLogRepository(client, cfg.MongoDB, "logs")

	quotes := marketdata.NewHTTPQuoteClient(cfg.QuoteAPIBaseURL, cfg.QuoteTimeout, zlog)
	monitorMetrics := metrics.NewMonitorMetrics(prometheus.DefaultRegisterer)

	userService := service.NewUserService(userRepo, cfg.ExemptEmails)
	alertService := service.NewAlertService(alertRepo, userRepo, quotes, zlog, cfg.FreeAlertLimit, cfg.ExemptEmails)
	settingsService := service.NewSettingsService(settingsRepo)
	watchlistService := service.NewWatchlistService(watchlistRepo)
	logService := service.NewLogService(logRepo)

	mailer := service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	notifier := service.NewNotifierService(settingsRepo, userRepo, hub, mailer, monitorMetrics, zlog, cfg.DefaultLanguage)

	monitor := service.NewMonitorService(
		alertRepo, quotes, notifier, hub, monitorMetrics, zlog,
		cfg.MonitorInterval, cfg.MonitorBackoff, cfg.CleanupMaxAge,
	)
	if err := monitor.Start(rootCtx); err != nil {
		zlog.Fatal("failed to start price monitor", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(zlog))

	api.SetupRoutes(r, cfg, rootCtx, userService, alertService, settingsService, watchlistService, logService, monitor, quotes, wsHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		zlog.Info("starting server", zap.String("addr", addr), zap.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("server shutdown error", zap.Error(err))
	}

	monitor.Stop()
	rootCancel()
}
