package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/telescope-ops/telescope/internal/config/status-api"
	"github.com/telescope-ops/telescope/internal/history"
	"github.com/telescope-ops/telescope/internal/obs"
	"github.com/telescope-ops/telescope/internal/probe"
	kafkaRepo "github.com/telescope-ops/telescope/internal/repository/kafka"
	pg "github.com/telescope-ops/telescope/internal/repository/postgres"
	api "github.com/telescope-ops/telescope/internal/services/status-api"
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
	l.Info("starting status-api",
		zap.String("http_addr", cfg.Server.HTTPAddr),
		zap.String("probe_url", cfg.Probe.URL),
		zap.Duration("poll_interval", cfg.Poll.Interval),
	)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	_ = kafkaRepo.EnsureTopic(ctx, cfg.Kafka.Brokers, kafkaRepo.TopicSpec{Name: cfg.Kafka.Topic}, l)
	prod := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer func() { _ = prod.Close() }()

	window := history.NewWindow(cfg.Poll.SlotWidth, cfg.Poll.SlotCount)
	poller := api.NewPoller(probe.New(cfg.Probe), window, systemClock{}, cfg.Poll.Interval, l)

	srv := &api.Server{
		Poller:    poller,
		Window:    window,
		Events:    kafkaRepo.NewAlertEventsKafka(prod),
		Log:       l,
		ProjectID: cfg.ProjectID,
	}

	healthFn := func(context.Context) error { return nil }
	if cfg.DB.DSN != "" {
		db, err := pg.NewDB(ctx, cfg.DB)
		if err != nil {
			l.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		srv.Logs = pg.NewHealthLogRepo(db)
		srv.Notifications = pg.NewNotificationRepo(db)

		if p, err := pg.NewProjectRepo(db).GetByID(ctx, cfg.ProjectID); err != nil {
			if errors.Is(err, pg.ErrNotFound) {
				l.Warn("configured project not found, recipient lookup will rely on the fallback address",
					zap.Int64("project_id", cfg.ProjectID))
			} else {
				l.Fatal("load project", zap.Error(err))
			}
		} else {
			l.Info("monitoring project", zap.Int64("project_id", p.ID), zap.String("name", p.Name))
		}

		healthFn = func(ctx context.Context) error {
			hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			defer cancel()
			return db.Pool.Ping(hctx)
		}
	}

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, healthFn, l)

	httpSrv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() { errCh <- poller.Run(ctx) }()
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	l.Info("status-api started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runtime error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
