package system

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"log/slog"
)

const readyTimeout = 2 * time.Second

// Check is a named dependency probe used by the readiness endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	logger *slog.Logger
	checks []Check
}

func NewHandler(logger *slog.Logger, checks ...Check) *Handler {
	return &Handler{logger: logger, checks: checks}
}

func (h *Handler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readyResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// SystemReady pings every configured backend and answers 503 if any is down.
func (h *Handler) SystemReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := readyResponse{Status: "ready"}
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", slog.String("check", c.Name), slog.Any("error", err))
			resp.Failed = append(resp.Failed, c.Name)
		}
	}

	status := http.StatusOK
	if len(resp.Failed) > 0 {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
