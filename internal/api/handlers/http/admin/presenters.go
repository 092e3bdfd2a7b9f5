package admin

import (
	"log/slog"
	"net/http"

	"cleanCity/internal/render"
)

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	l := h.log(r)

	status, body := render.FromError(err)
	if status >= http.StatusInternalServerError {
		l.Error("handler error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	} else {
		l.Info("request rejected", slog.String("path", r.URL.Path), slog.String("code", body.Code))
	}

	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	if err := render.JSON(w, code, v); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}
