package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"quiz-engine-service/internal/identity"
)

type callerKey struct{}

// caller is filled in by authenticate so the access log, which runs outside
// the authenticated group, can report the user id.
type caller struct {
	userID int64
}

// accessLog emits one structured entry per request.
func accessLog(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			c := &caller{}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), callerKey{}, c)))

			fields := logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"latency_ms": time.Since(start).Milliseconds(),
			}
			if c.userID > 0 {
				fields["user_id"] = c.userID
			}
			log.WithFields(fields).Info("http request")
		})
	}
}

func authenticate(v *identity.Verifier, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Authenticate(r)
			if err != nil {
				writeErr(w, r, log, err)
				return
			}
			if c, ok := r.Context().Value(callerKey{}).(*caller); ok {
				c.userID = id.UserID
			}
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}

func requireAdmin(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := identity.FromContext(r.Context())
			if err := identity.RequireAdmin(id); err != nil {
				writeErr(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
