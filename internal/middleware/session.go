package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Session makes sure every request carries a session id cookie and puts
// the id into the request context. Invalid cookie values are replaced.
func Session(cookieName string, secure bool, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if _, perr := uuid.Parse(c.Value); perr == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), SessionKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID from context, "" when the Session middleware did not run.
func SessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionKey).(string); ok {
		return id
	}
	return ""
}
