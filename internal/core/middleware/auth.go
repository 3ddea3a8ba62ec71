package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Nzyazin/invest/internal/core/logger"
	"github.com/Nzyazin/invest/internal/core/session"
)

type sessionKey struct{}

// Authenticate builds a session from the bearer credential of each request.
// Requests without a usable credential get 401 and never reach the handler.
func Authenticate(provider session.IdentityProvider, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeUnauthorized(w)
				return
			}

			sess := session.NewContext(provider)
			if err := sess.Init(header); err != nil || !sess.IsAuthenticated() {
				log.Warn("Rejected credential",
					logger.StringField("path", r.URL.Path),
					logger.ErrorField("error", err))
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func WithSession(ctx context.Context, sess *session.Context) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the session attached by Authenticate.
func SessionFrom(ctx context.Context) (*session.Context, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*session.Context)
	return sess, ok && sess != nil
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"session expired, please login again"}`))
}
