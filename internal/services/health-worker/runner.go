package health_worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type SchedConfig struct {
	Tick       time.Duration `mapstructure:"tick"`
	BatchLimit int           `mapstructure:"batch_limit"`
}

// Runner drives the worker on a fixed cadence, standing in for the
// external cron trigger of the hosted deployment.
type Runner struct {
	Log *zap.Logger
	H   *Handler
	Cfg SchedConfig

	mTicks   prometheus.Counter
	mDue     prometheus.Counter
	mAlerts  prometheus.Counter
	mErr     prometheus.Counter
	mLoopDur prometheus.Histogram
}

func NewRunner(log *zap.Logger, h *Handler, cfg SchedConfig) *Runner {
	if cfg.Tick <= 0 {
		cfg.Tick = 2 * time.Minute
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 100
	}
	return &Runner{
		Log: log,
		H:   h,
		Cfg: cfg,
		mTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "health_worker_ticks_total", Help: "Worker ticks executed",
		}),
		mDue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "health_worker_projects_evaluated_total", Help: "Due projects evaluated",
		}),
		mAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "health_worker_alerts_queued_total", Help: "Alerts enqueued for dispatch",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "health_worker_errors_total", Help: "Errors in the worker loop",
		}),
		mLoopDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "health_worker_tick_duration_seconds", Help: "Worker tick duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	r.mTicks.Inc()

	stats, err := r.H.Tick(ctx, r.Cfg.BatchLimit)
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("tick error", zap.Error(err))
	}
	r.mDue.Add(float64(stats.Due))
	r.mAlerts.Add(float64(stats.Alerts))
	if stats.Errors > 0 {
		r.mErr.Add(float64(stats.Errors))
	}
	if stats.Due > 0 {
		r.Log.Debug("tick done",
			zap.Int("due", stats.Due),
			zap.Int("alerts", stats.Alerts),
			zap.Int("errors", stats.Errors),
		)
	}
	r.mLoopDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Cfg.Tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
