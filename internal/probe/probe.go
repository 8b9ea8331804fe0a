// Package probe performs the bounded-timeout call against the gateway
// health endpoint and normalizes whatever comes back. Every failure mode
// short of missing configuration collapses into the ProbeResult itself.
package probe

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/telescope-ops/telescope/internal/domain/health"
)

const DefaultTimeout = 10 * time.Second

// ErrNotConfigured is the only error Probe ever returns: the bearer
// token is missing, so no status can be determined at all.
var ErrNotConfigured = errors.New("gateway health token not configured")

type Prober interface {
	Probe(ctx context.Context) (health.ProbeResult, error)
}

type Config struct {
	URL       string        `mapstructure:"url"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	VerifyTLS bool          `mapstructure:"verify_tls"`
}

type Client struct {
	c   *http.Client
	cfg Config
}

var _ Prober = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			MinVersion:         tls.VersionTLS12,
		},
	}
	return &Client{
		c: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		cfg: cfg,
	}
}

// payload is the tolerant view of the health endpoint body. Unknown
// fields are ignored, absent fields default safely.
type payload struct {
	Status string                  `json:"status"`
	Checks *health.ComponentChecks `json:"checks"`
}

func (cl *Client) Probe(ctx context.Context) (health.ProbeResult, error) {
	if cl.cfg.Token == "" {
		return health.ProbeResult{Err: ErrNotConfigured.Error()}, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.cfg.URL, nil)
	if err != nil {
		return health.ProbeResult{Err: err.Error()}, nil
	}
	req.Header.Set("Authorization", "Bearer "+cl.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if cl.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cl.cfg.UserAgent)
	}

	resp, err := cl.c.Do(req)
	if err != nil {
		// Timeout, DNS, refused connection: one failure representation.
		return health.ProbeResult{Err: err.Error()}, nil
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	var body payload
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)); err == nil {
		// A non-JSON body is not a probe failure; it just carries no detail.
		_ = json.Unmarshal(raw, &body)
	}

	status := health.Status(body.Status)
	if !status.Known() {
		status = health.StatusUnknown
	}

	return health.ProbeResult{
		IsUp:       code == http.StatusOK && status != health.StatusDown,
		Status:     status,
		StatusCode: &code,
		Checks:     body.Checks,
	}, nil
}
