package middleware

import (
	"context"
	"net/http"

	"github.com/MarcelKueck/shareyourspace-mvp/internal/auth"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/http/respond"
)

// AccessTokenCookie is the browser-managed cookie carrying the access
// token. It is HTTP-only so client-side script can never read it.
const AccessTokenCookie = "access_token"

type contextKey string

const subjectKey contextKey = "auth.subject"

// RequireAuth gates a handler behind a valid access-token cookie. The
// token is decoded without a fixed purpose and the purpose is checked
// here, mirroring how the refresh flow consumes tokens.
func RequireAuth(tokens *auth.TokenManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(AccessTokenCookie)
		if err != nil || cookie.Value == "" {
			respond.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		claims, err := tokens.VerifyAny(cookie.Value)
		if err != nil || claims.Purpose != auth.PurposeAccess {
			respond.Error(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Subject returns the authenticated account email stored by RequireAuth.
func Subject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}
