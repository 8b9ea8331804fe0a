package alert_notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/telescope-ops/telescope/internal/domain/alert"
)

// ErrNotConfigured is returned when the provider API key is absent; the
// handler reports it as a skipped send, never a crash.
var ErrNotConfigured = errors.New("email provider api key not configured")

type MailerConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	From       string        `mapstructure:"from"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

// Mailer dispatches through the transactional provider's JSON API
// (POST <base>/emails, bearer-authenticated). A non-2xx answer is an
// error for the caller to soften, not to retry.
type Mailer struct {
	c   *http.Client
	cfg MailerConfig
	log *zap.Logger
}

var _ alert.EmailSender = (*Mailer)(nil)

func NewMailer(cfg MailerConfig) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Mailer{
		c:   &http.Client{Timeout: cfg.Timeout},
		cfg: cfg,
		log: zap.L().With(zap.String("component", "alert-notifier.mailer")),
	}
}

func (m *Mailer) WithLogger(l *zap.Logger) *Mailer {
	if l == nil {
		return m
	}
	cp := *m
	cp.log = l.With(zap.String("component", "alert-notifier.mailer"))
	return &cp
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *Mailer) Send(ctx context.Context, to []string, subject, html string) error {
	if m.cfg.APIKey == "" {
		return ErrNotConfigured
	}

	subj := strings.TrimSpace(m.cfg.SubjPrefix + " " + subject)
	payload, err := json.Marshal(sendRequest{
		From:    m.cfg.From,
		To:      to,
		Subject: subj,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(m.cfg.BaseURL, "/")+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	log := m.log.With(
		zap.String("from", m.cfg.From),
		zap.Strings("to", to),
		zap.String("subject", subj),
	)

	resp, err := m.c.Do(req)
	if err != nil {
		log.Warn("provider call failed", zap.Error(err))
		return fmt.Errorf("provider call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn("provider rejected email",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return fmt.Errorf("provider status %d", resp.StatusCode)
	}

	log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}
