package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"loyalty-campaign/internal/infra/i18n"
	"loyalty-campaign/internal/infra/logging"
	"loyalty-campaign/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

type Middleware func(http.Handler) http.Handler

// TraceID tags every request with a ulid, echoed back in X-Request-ID.
func TraceID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := r.Header.Get("X-Request-ID")
			if tid == "" || len(tid) > 64 {
				tid = ulid.Make().String()
			}
			w.Header().Set("X-Request-ID", tid)
			ctx := logging.WithTraceID(r.Context(), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Localize picks the response language from Accept-Language.
func Localize(bundle *i18n.Bundle) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := bundle.Match(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", t.Lang())
			next.ServeHTTP(w, r.WithContext(withTranslator(r.Context(), t)))
		})
	}
}

// RequestLog logs one line per request and feeds the HTTP metrics. The route
// label is chi's pattern so ids in the path do not explode cardinality.
func RequestLog(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			elapsed := time.Since(start)
			metrics.ObserveHTTP(r.Method, route, ww.status, elapsed.Seconds())

			l := logging.With(r.Context(), logger)
			ev := l.Info()
			if ww.status >= http.StatusInternalServerError {
				ev = l.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status", ww.status).
				Dur("duration", elapsed).
				Msg("http_request")
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func Recover(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l := logging.With(r.Context(), logger)
					l.Error().Interface("panic", rec).Msg("panic recovered")
					writeMessage(w, r, http.StatusInternalServerError, false, msgInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	hdr := r.Header.Get("Authorization")
	parts := strings.Fields(hdr)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireUser admits requests carrying a valid access token and puts the
// user id into the request context.
func RequireUser(auth *AuthManager, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r)
			if !ok {
				writeMessage(w, r, http.StatusUnauthorized, false, "auth.missing_credentials")
				return
			}
			claims, err := auth.ParseAccess(tok)
			if err != nil {
				logging.With(r.Context(), logger).Debug().Err(err).Msg("access token rejected")
				writeMessage(w, r, http.StatusUnauthorized, false, "auth.invalid_token")
				return
			}
			ctx := logging.WithUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks a static bearer API key. An unset key disables the
// admin surface entirely.
func RequireAdmin(apiKey string, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				logger.Error().Msg("admin API key is not configured")
				metrics.IncAdminRequest("disabled")
				writeMessage(w, r, http.StatusForbidden, false, "auth.forbidden")
				return
			}
			tok, ok := bearerToken(r)
			if !ok {
				metrics.IncAdminRequest("unauthorized")
				writeMessage(w, r, http.StatusUnauthorized, false, "auth.unauthorized")
				return
			}
			if subtle.ConstantTimeCompare([]byte(tok), []byte(apiKey)) != 1 {
				metrics.IncAdminRequest("forbidden")
				writeMessage(w, r, http.StatusForbidden, false, "auth.forbidden")
				return
			}
			metrics.IncAdminRequest("ok")
			next.ServeHTTP(w, r)
		})
	}
}
