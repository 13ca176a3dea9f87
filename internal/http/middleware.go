package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/coffee_cart/internal/session"
	"github.com/fjod/coffee_cart/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const SessionHeader = "X-Session-ID"

type sessionKey struct{}

// AccessLogMiddleware stores l in the request context and logs one line per
// request.
func AccessLogMiddleware(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx := logger.WithContext(r.Context(), l.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Logger())
			r = r.WithContext(ctx)

			next.ServeHTTP(ww, r)

			reqLog := logger.FromContext(ctx)
			reqLog.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// SessionMiddleware loads the session named by the X-Session-ID header.
func SessionMiddleware(registry *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if id == "" {
				respondError(w, r, http.StatusBadRequest, "missing_session", SessionHeader+" header is required")
				return
			}
			s, err := registry.Get(r.Context(), id)
			if err != nil {
				handleError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}

// MaxBodySizeMiddleware caps request bodies at n bytes.
func MaxBodySizeMiddleware(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
