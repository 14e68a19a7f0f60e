package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/quizforge/backend/internal/id"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging writes one access log line per request.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// CORS allows browser front-ends served from origin.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			if origin != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ── Learner identity ────────────────────────────────────────────────────────

const (
	LearnerCookie = "quiz_learner"
	learnerMaxAge = 365 * 24 * 60 * 60
)

type learnerKey struct{}

// Learner makes sure every request carries a learner id, issuing a
// long-lived cookie on first contact.
func Learner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		learnerID := ""
		if c, err := r.Cookie(LearnerCookie); err == nil && id.Valid(c.Value) {
			learnerID = c.Value
		} else {
			learnerID = id.GenerateID()
			http.SetCookie(w, &http.Cookie{
				Name:     LearnerCookie,
				Value:    learnerID,
				Path:     "/",
				MaxAge:   learnerMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), learnerKey{}, learnerID)))
	})
}

func learnerFrom(ctx context.Context) string {
	v, _ := ctx.Value(learnerKey{}).(string)
	return v
}
