package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/config"
	"github.com/mamadbah2/coopkeeper/internal/repository/mongodb"
	"github.com/mamadbah2/coopkeeper/internal/repository/sheets"
	"github.com/mamadbah2/coopkeeper/internal/scheduler"
	"github.com/mamadbah2/coopkeeper/internal/server/handlers"
	"github.com/mamadbah2/coopkeeper/internal/server/router"
	authsvc "github.com/mamadbah2/coopkeeper/internal/service/auth"
	inventorysvc "github.com/mamadbah2/coopkeeper/internal/service/inventory"
	notifiersvc "github.com/mamadbah2/coopkeeper/internal/service/notifier"
	reportingsvc "github.com/mamadbah2/coopkeeper/internal/service/reporting"
	"github.com/mamadbah2/coopkeeper/pkg/clients/webhook"
	"github.com/mamadbah2/coopkeeper/pkg/logger"
	"github.com/mamadbah2/coopkeeper/pkg/token"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.Env))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var sink sheets.SummarySink
	if cfg.Sheets.Enabled() {
		sheetSink, err := sheets.NewGoogleSheetSink(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets sink", zap.Error(err))
		}
		sink = sheetSink
		baseLogger.Info("spreadsheet export enabled")
	}

	var alerts notifiersvc.AlertSender
	if cfg.Alerts.WebhookURL != "" {
		alerts = webhook.NewClient(cfg.Alerts)
		baseLogger.Info("alert webhook enabled")
	}

	tokenSvc := token.NewService(cfg.Auth.JWTSecret, "coopkeeper")

	notifierSvc := notifiersvc.NewService(mongoRepo, alerts, logger.Named(baseLogger, "svc.notifier"))
	authSvc := authsvc.NewService(mongoRepo, tokenSvc, notifierSvc, logger.Named(baseLogger, "svc.auth"))
	inventorySvc := inventorysvc.NewService(mongoRepo, mongoRepo, logger.Named(baseLogger, "svc.inventory"))
	reportingSvc := reportingsvc.NewService(mongoRepo, logger.Named(baseLogger, "svc.reporting"))

	handlerLogger := logger.Named(baseLogger, "handlers")
	engine := router.New(router.Handlers{
		Auth:          handlers.NewAuthHandler(authSvc, handlerLogger),
		Production:    handlers.NewProductionHandler(inventorySvc, mongoRepo, handlerLogger),
		Inventory:     handlers.NewInventoryHandler(inventorySvc, handlerLogger),
		Flock:         handlers.NewFlockHandler(mongoRepo, handlerLogger),
		Health:        handlers.NewHealthHandler(mongoRepo, handlerLogger),
		Feed:          handlers.NewFeedHandler(mongoRepo, handlerLogger),
		Expense:       handlers.NewExpenseHandler(mongoRepo, reportingSvc, handlerLogger),
		Revenue:       handlers.NewRevenueHandler(mongoRepo, reportingSvc, handlerLogger),
		Dashboard:     handlers.NewDashboardHandler(reportingSvc, handlerLogger),
		Notifications: handlers.NewNotificationHandler(mongoRepo, handlerLogger),
	}, tokenSvc, mongoRepo, cfg.Server.IsProduction(), logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(cfg.Scheduler, notifierSvc, reportingSvc, mongoRepo, sink, logger.Named(baseLogger, "scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
