package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/google/uuid"

	"nudge/internal/auth"
	"nudge/internal/config"
	"nudge/internal/db"
	httpx "nudge/internal/http"
	"nudge/internal/mailer"
	"nudge/internal/metrics"
	"nudge/internal/notiflog"
	"nudge/internal/prefs"
	"nudge/internal/reminder"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, _ := config.Load()
	metrics.Init()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)

	jobStore := &reminder.Store{DB: gdb}
	prefStore := &prefs.Store{DB: gdb}
	feed := &notiflog.Store{DB: gdb}

	intake := &reminder.Intake{Store: jobStore, Prefs: prefStore, Log: logger}

	sender := &mailer.SMTP{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}

	host, _ := os.Hostname()
	dispatcher := &reminder.Dispatcher{
		WorkerID: fmt.Sprintf("%s-%s", host, uuid.NewString()[:8]),
		Store:    jobStore,
		Feed:     feed,
		Mailer:   sender,
		Prefs:    prefStore,
		Limiter:  rate.NewLimiter(rate.Limit(cfg.MailRate), cfg.MailRate),
		Log:      logger,

		Tick:        cfg.TickInterval,
		BatchSize:   cfg.ClaimBatchSize,
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
		StaleAfter:  cfg.StaleClaimAfter,
		MailTimeout: cfg.MailTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)

	r := httpx.NewRouter(cfg, gdb, jwtSvc, intake, feed, prefStore)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
