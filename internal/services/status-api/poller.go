package status_api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/telescope-ops/telescope/internal/domain/health"
	"github.com/telescope-ops/telescope/internal/history"
	"github.com/telescope-ops/telescope/internal/probe"
)

// AllowedIntervals are the poll cadences the API accepts, in seconds.
// Anything else snaps to the nearest one.
var AllowedIntervals = []int{30, 60, 120, 180, 300, 600}

const DefaultInterval = 120 * time.Second

// NormalizeInterval snaps d to the closest allowed cadence.
func NormalizeInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultInterval
	}
	sec := int(d / time.Second)
	best := AllowedIntervals[0]
	for _, a := range AllowedIntervals {
		if abs(sec-a) < abs(sec-best) {
			best = a
		}
	}
	return time.Duration(best) * time.Second
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Observation is the latest classified probe outcome held for the API.
type Observation struct {
	Result         health.ProbeResult    `json:"result"`
	Classification health.Classification `json:"classification"`
	CheckedAt      time.Time             `json:"checkedAt"`
	NotConfigured  bool                  `json:"-"`
}

// Poller runs the background check loop feeding the rolling window and
// the last-observation cache the HTTP layer serves from.
type Poller struct {
	Probe    probe.Prober
	Window   *history.Window
	Clock    health.Clock
	Interval time.Duration
	Log      *zap.Logger

	wake chan struct{}

	mu   sync.RWMutex
	last *Observation
}

var (
	mPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statusapi_polls_total",
		Help: "Background health polls performed.",
	})
	mFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statusapi_poll_failures_total",
		Help: "Polls whose probe reported a failure.",
	})
	mScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "statusapi_health_score",
		Help: "Latest classified health score (0-100).",
	})
	mUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "statusapi_gateway_up",
		Help: "1 when the latest probe reached the gateway, else 0.",
	})
)

func NewPoller(p probe.Prober, w *history.Window, clock health.Clock, interval time.Duration, log *zap.Logger) *Poller {
	return &Poller{
		Probe:    p,
		Window:   w,
		Clock:    clock,
		Interval: NormalizeInterval(interval),
		Log:      log.With(zap.String("component", "status-api.poller")),
		wake:     make(chan struct{}, 1),
	}
}

// Wake requests an immediate out-of-band poll. Coalesces: while one
// wake is pending, further calls are no-ops.
func (p *Poller) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Last returns the most recent observation, or nil before the first
// poll completes.
func (p *Poller) Last() *Observation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Run polls on the configured cadence until ctx is canceled. The first
// poll happens immediately so the API never starts empty.
func (p *Poller) Run(ctx context.Context) error {
	p.Log.Info("poller started", zap.Duration("interval", p.Interval))

	p.CheckNow(ctx)

	t := time.NewTicker(p.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Log.Info("poller stopped (ctx canceled)")
			return ctx.Err()
		case <-t.C:
			p.CheckNow(ctx)
		case <-p.wake:
			p.CheckNow(ctx)
			t.Reset(p.Interval)
		}
	}
}

// CheckNow performs one probe, classifies it, records it on the window
// and returns the fresh observation.
func (p *Poller) CheckNow(ctx context.Context) *Observation {
	mPolls.Inc()
	now := p.Clock.Now()

	res, err := p.Probe.Probe(ctx)
	obs := &Observation{
		Result:         res,
		Classification: health.Classify(res),
		CheckedAt:      now,
		NotConfigured:  errors.Is(err, probe.ErrNotConfigured),
	}

	if obs.NotConfigured {
		p.Log.Warn("probe not configured")
	} else {
		if !res.IsUp {
			mFailures.Inc()
		}
		p.Window.Append(history.Entry{
			Timestamp: now,
			Status:    obs.Classification.Status,
			IsUp:      res.IsUp,
		})
	}

	mScore.Set(float64(obs.Classification.Score))
	if res.IsUp {
		mUp.Set(1)
	} else {
		mUp.Set(0)
	}

	p.mu.Lock()
	p.last = obs
	p.mu.Unlock()

	p.Log.Debug("poll completed",
		zap.String("status", string(obs.Classification.Status)),
		zap.Int("score", obs.Classification.Score),
		zap.Bool("is_up", res.IsUp),
	)
	return obs
}
