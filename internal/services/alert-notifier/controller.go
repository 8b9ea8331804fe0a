package alert_notifier

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	kafkax "github.com/telescope-ops/telescope/internal/repository/kafka"
)

type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	UC  *Handler

	mConsumed prometheus.Counter
	mSent     prometheus.Counter
	mSkipped  *prometheus.CounterVec
	mErrors   prometheus.Counter
}

func NewController(log *zap.Logger, sub *kafkax.Consumer, uc *Handler) *Controller {
	return &Controller{
		Log: log.With(zap.String("component", "alert-notifier.controller")),
		Sub: sub,
		UC:  uc,

		mConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_alerts_consumed_total",
			Help: "Alerts fetched from the alerts topic.",
		}),
		mSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_emails_sent_total",
			Help: "Alert emails accepted by the provider.",
		}),
		mSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_alerts_skipped_total",
			Help: "Alerts consumed but not delivered, by reason.",
		}, []string{"reason"}),
		mErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_handler_errors_total",
			Help: "Handler failures that trigger redelivery.",
		}),
	}
}

// Run consumes alert events until ctx is canceled. Only infrastructure
// errors (recipient lookup) propagate to the consumer for redelivery;
// everything else commits.
func (c *Controller) Run(ctx context.Context) error {
	h := kafkax.EventHandler(func(ctx context.Context, _ []byte, ev *kafkax.AlertEvent) error {
		c.mConsumed.Inc()

		a := ev.ToDomain()
		if a.Kind == "" {
			c.Log.Warn("alert without kind, dropping", zap.Int64("project_id", a.ProjectID))
			c.mSkipped.WithLabelValues("malformed").Inc()
			return nil
		}

		out, err := c.UC.HandleAlert(ctx, a)
		if err != nil {
			c.mErrors.Inc()
			return err
		}
		if out.Sent {
			c.mSent.Inc()
		} else {
			c.mSkipped.WithLabelValues(out.Reason).Inc()
		}
		return nil
	})

	return c.Sub.Consume(ctx, h)
}
