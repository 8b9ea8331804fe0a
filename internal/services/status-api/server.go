package status_api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/telescope-ops/telescope/internal/domain/alert"
	"github.com/telescope-ops/telescope/internal/domain/health"
	"github.com/telescope-ops/telescope/internal/history"
)

// Server exposes the dashboard-facing HTTP API: the live check, the
// rolling history strip, a manual refresh trigger and a test alert.
type Server struct {
	Poller *Poller
	Window *history.Window
	Events alert.Events
	Log    *zap.Logger

	// Logs serves the persisted check log behind /log. Optional: the API
	// runs without a database, losing only that endpoint.
	Logs health.LogRepo

	// Notifications serves the sent-alert audit trail behind
	// /notifications. Optional, same database as Logs.
	Notifications alert.NotificationRepo

	// ProjectID tags test alerts so the notifier can resolve recipients.
	ProjectID int64
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health-check", s.handleHealthCheck)
		r.Get("/history", s.handleHistory)
		r.Get("/log", s.handleLog)
		r.Get("/notifications", s.handleNotifications)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/notify-test", s.handleNotifyTest)
	})

	return otelhttp.NewHandler(r, "status-api")
}

// statusResponse mirrors the gateway's own health payload (isUp, the
// reported status, statusCode, checks) and adds the classified view on
// top. ReportedStatus stays null when the probe never got an answer.
type statusResponse struct {
	Status         health.Status           `json:"status"`
	ReportedStatus *health.Status          `json:"reportedStatus"`
	Score          int                     `json:"score"`
	IsUp           bool                    `json:"isUp"`
	StatusCode     *int                    `json:"statusCode"`
	Checks         *health.ComponentChecks `json:"checks"`
	Factors        []health.Factor         `json:"factors"`
	CheckedAt      time.Time               `json:"checkedAt"`
	Error          string                  `json:"error,omitempty"`
}

func toStatusResponse(obs *Observation) statusResponse {
	resp := statusResponse{
		Status:     obs.Classification.Status,
		Score:      obs.Classification.Score,
		IsUp:       obs.Result.IsUp,
		StatusCode: obs.Result.StatusCode,
		Checks:     obs.Result.Checks,
		Factors:    obs.Classification.Factors,
		CheckedAt:  obs.CheckedAt,
		Error:      obs.Result.Err,
	}
	if obs.Result.Status.Known() {
		reported := obs.Result.Status
		resp.ReportedStatus = &reported
	}
	return resp
}

// handleHealthCheck runs a live probe. Probe failures still answer 200
// with a down-shaped body; only missing configuration is a server error.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	obs := s.Poller.CheckNow(r.Context())
	if obs.NotConfigured {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "health check token not configured",
		})
		return
	}
	writeJSON(w, http.StatusOK, toStatusResponse(obs))
}

type historyResponse struct {
	WindowStart  time.Time       `json:"windowStart"`
	SlotWidthSec int             `json:"slotWidthSec"`
	SlotCount    int             `json:"slotCount"`
	Entries      []history.Entry `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, historyResponse{
		WindowStart:  s.Window.Start(),
		SlotWidthSec: int(s.Window.SlotWidth() / time.Second),
		SlotCount:    s.Window.SlotCount(),
		Entries:      s.Window.Snapshot(),
	})
}

// handleLog returns the persisted check rows for the current window, the
// durable counterpart of the in-memory strip.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if s.Logs == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "persistent history not configured",
		})
		return
	}

	from := s.Window.Start()
	to := from.Add(s.Window.SlotWidth() * time.Duration(s.Window.SlotCount()))
	entries, err := s.Logs.LoadWindow(r.Context(), s.ProjectID, from, to)
	if err != nil {
		s.Log.Error("load check log", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "could not load check log",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"windowStart": from,
		"entries":     entries,
	})
}

// handleNotifications lists the most recently dispatched alert emails,
// newest first.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.Notifications == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "notification history not configured",
		})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be 1..500"})
			return
		}
		limit = n
	}

	items, err := s.Notifications.ListByProject(r.Context(), s.ProjectID, limit)
	if err != nil {
		s.Log.Error("list notifications", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "could not load notifications",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
}

// handleRefresh schedules an immediate out-of-band poll and returns
// without waiting for its result.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.Poller.Wake()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

type notifyTestRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	var req notifyTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "valid email required"})
		return
	}

	requestID := uuid.NewString()
	a := &alert.Alert{
		ProjectID:     s.ProjectID,
		Kind:          alert.KindTest,
		CheckedAt:     s.Poller.Clock.Now(),
		Reason:        "manual test alert " + requestID,
		TestRecipient: req.Email,
	}
	if err := s.publish(r.Context(), a); err != nil {
		s.Log.Error("publish test alert", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "could not queue test alert"})
		return
	}

	s.Log.Info("test alert queued",
		zap.String("request_id", requestID),
		zap.String("recipient", req.Email),
	)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"requestId": requestID,
		"queued":    true,
	})
}

func (s *Server) publish(ctx context.Context, a *alert.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.Events.PublishAlert(ctx, a)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
