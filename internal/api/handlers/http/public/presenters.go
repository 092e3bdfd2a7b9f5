package public

import (
	"log/slog"
	"net/http"

	"cleanCity/internal/render"
)

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := render.FromError(err)

	l := h.log(r)
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		l.Error("handler error", attrs...)
	} else {
		l.Info("request rejected", attrs...)
	}

	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	if err := render.JSON(w, code, v); err != nil {
		h.logger.Error("json encode failed", slog.Any("error", err))
	}
}

