package admin

import (
	"context"
	"log/slog"
	"net/http"

	"cleanCity/internal/domain"
	"cleanCity/internal/middleware"
	"cleanCity/internal/render"
	"cleanCity/pkg/e"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Sessions interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(ctx context.Context, token string) error
}

type ReportStatusUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, req domain.UpdateStatusRequest) (*domain.Report, error)
}

type StatsGetter interface {
	GetStats(ctx context.Context) (*domain.ReportStats, error)
}

type Handler struct {
	logger   *slog.Logger
	Sessions Sessions
	Reports  ReportStatusUpdater
	Stats    StatsGetter
}

func NewHandler(logger *slog.Logger, sessions Sessions, reports ReportStatusUpdater, stats StatsGetter) *Handler {
	return &Handler{
		logger:   logger,
		Sessions: sessions,
		Reports:  reports,
		Stats:    stats,
	}
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("Login", slog.String("remote", r.RemoteAddr))

	var req domain.LoginRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		l.Warn("invalid JSON", slog.String("error", err.Error()))
		h.handleError(w, r, err)
		return
	}

	resp, err := h.Sessions.Login(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("admin logged in", slog.String("admin_id", resp.Admin.ID.String()))
	h.writeJSON(w, http.StatusOK, resp)
}

// Logout never fails for unknown or missing tokens.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("Logout", slog.String("remote", r.RemoteAddr))

	if err := h.Sessions.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		l.Warn("session delete failed", slog.Any("error", err))
	}

	h.writeJSON(w, http.StatusOK, render.MessageBody{Message: "Logged out successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminStats", slog.String("remote", r.RemoteAddr))

	stats, err := h.Stats.GetStats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("stats success", slog.Int("total", stats.Total))
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ReportStatusUpdate(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("ReportStatusUpdate", slog.String("remote", r.RemoteAddr))

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		l.Warn("invalid id", slog.String("id", idStr))
		h.handleError(w, r, e.ErrNotFound)
		return
	}

	var req domain.UpdateStatusRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	report, err := h.Reports.UpdateStatus(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	l.Info("report status updated", slog.String("id", id.String()), slog.String("status", string(report.Status)))
	h.writeJSON(w, http.StatusOK, report)
}
