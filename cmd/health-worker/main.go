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

	config "github.com/telescope-ops/telescope/internal/config/health-worker"
	"github.com/telescope-ops/telescope/internal/obs"
	"github.com/telescope-ops/telescope/internal/obs/retry"
	ob "github.com/telescope-ops/telescope/internal/outbox"
	"github.com/telescope-ops/telescope/internal/probe"
	kafkaRepo "github.com/telescope-ops/telescope/internal/repository/kafka"
	pg "github.com/telescope-ops/telescope/internal/repository/postgres"
	worker "github.com/telescope-ops/telescope/internal/services/health-worker"
	"github.com/telescope-ops/telescope/internal/services/health-worker/repo"
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
	l.Info("starting health-worker",
		zap.Any("kafka_out", cfg.Kafka),
		zap.String("probe_url", cfg.Probe.URL),
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

	_ = kafkaRepo.EnsureTopic(ctx, cfg.Kafka.Brokers, kafkaRepo.TopicSpec{Name: cfg.Kafka.Topic}, l)
	prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer func() { _ = prod.Close() }()
	publisher := kafkaRepo.NewAlertEventsKafka(prod)

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	outboxRepo := pg.NewOutboxRepo(db)
	h := &worker.Handler{
		Projects: repo.Projects{R: pg.NewProjectRepo(db)},
		Logs:     repo.Logs{R: pg.NewHealthLogRepo(db)},
		Trackers: repo.Trackers{R: pg.NewTrackerRepo(db)},
		Outbox:   repo.AlertOutbox{R: outboxRepo},
		Tx:       pg.NewTransactor(db, l),
		Probe:    probe.New(cfg.Probe),
		Clock:    systemClock{},
		Reminder: cfg.Worker.Reminder,
		Log:      l,
	}
	runner := worker.NewRunner(l, h, *cfg.Worker.AsSchedConfig())

	dispatch := ob.MakeDispatcher(publisher, retry.DefaultPublishPolicy(l))
	obRunner := ob.NewRunner(l, outboxRepo, dispatch, cfg.Outbox)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()
	go obRunner.Start(ctx)

	l.Info("health-worker started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
