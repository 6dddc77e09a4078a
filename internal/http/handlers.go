package http

import (
	"context"
	"net/http"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DashboardProvider computes month dashboards for a user.
// services.DashboardService satisfies it.
type DashboardProvider interface {
	Month(ctx context.Context, userID string, year int, month time.Month) (core.Dashboard, error)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports ready only when the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}
	if s.db == nil {
		checks["database"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.db.Ping(ctx); err != nil {
		checks["database"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Categories)
}

func handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.PaymentMethods)
}

// handleDashboard serves the caller's dashboard for ?ano=&mes=, defaulting to
// the current month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonthParams(r, time.Now(), core.Location())
	if err != nil {
		writeServiceError(w, r, err, "dashboard")
		return
	}
	d, err := s.dashboard.Month(r.Context(), auth.UserID(r.Context()), year, month)
	if err != nil {
		writeServiceError(w, r, err, "dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}
