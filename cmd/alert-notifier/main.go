package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/telescope-ops/telescope/internal/config/alert-notifier"
	"github.com/telescope-ops/telescope/internal/obs"
	kafkaRepo "github.com/telescope-ops/telescope/internal/repository/kafka"
	pg "github.com/telescope-ops/telescope/internal/repository/postgres"
	notifier "github.com/telescope-ops/telescope/internal/services/alert-notifier"
	"github.com/telescope-ops/telescope/internal/services/alert-notifier/repo"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to yaml config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting alert-notifier",
		zap.Any("kafka_in", cfg.In),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	sub := kafkaRepo.BootstrapConsumer(ctx, &kafkaRepo.ConsumerConfig{
		Brokers: cfg.In.Brokers,
		GroupID: cfg.In.GroupID,
		Topic:   cfg.In.Topic,
		Logger:  l,
	}, l)
	defer func() { _ = sub.Close() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	uc := &notifier.Handler{
		Recipients: repo.Recipients{R: pg.NewRecipientRepo(db)},
		Store:      repo.Notifications{R: pg.NewNotificationRepo(db)},
		Out:        notifier.NewMailer(cfg.Email.MailerConfig).WithLogger(l),
		Clock:      systemClock{},
		Fallback:   cfg.Email.Fallback,
		Log:        l,
	}
	ctrl := notifier.NewController(l, sub, uc)

	errCh := make(chan error, 1)
	go func() { errCh <- ctrl.Run(ctx) }()

	l.Info("alert-notifier started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("controller error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
