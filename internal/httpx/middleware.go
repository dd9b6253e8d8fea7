package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/dukahq/storefront/internal/auth"
	"github.com/dukahq/storefront/internal/core/domain/entity"
)

// ctxKey is unexported so no other package can collide with our context
// values.
type ctxKey string

const sessionKey ctxKey = "session"

// SessionFrom extracts the authenticated session from a request context.
func SessionFrom(ctx context.Context) (entity.Session, bool) {
	session, ok := ctx.Value(sessionKey).(entity.Session)
	return session, ok
}

// RequireSession rejects requests without a valid bearer token and injects
// the session into the context for downstream handlers.
func RequireSession(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "missing_token", "")
				return
			}

			session, err := authSvc.SessionFromToken(r.Context(), raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token", "")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates admin routes. Must run after RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFrom(r.Context())
		if !ok || !session.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin_only", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
