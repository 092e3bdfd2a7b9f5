package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"cleanCity/internal/render"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (bool, error)
}

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "" when there is none.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func RequireAdmin(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.With(slog.String("request_id", chimw.GetReqID(r.Context())))

			token := BearerToken(r)
			if token == "" {
				l.Debug("missing bearer token", slog.String("path", r.URL.Path))
				_ = render.Error(w, http.StatusUnauthorized, render.CodeUnauthorized, "unauthorized")
				return
			}

			ok, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				l.Error("session lookup failed", slog.Any("error", err))
				_ = render.Error(w, http.StatusInternalServerError, render.CodeInternal, "internal error")
				return
			}
			if !ok {
				l.Info("rejected session", slog.String("path", r.URL.Path))
				_ = render.Error(w, http.StatusUnauthorized, render.CodeUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
