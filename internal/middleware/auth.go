package middleware

import (
	"net/http"

	"github.com/sysengio/wysechat/internal/auth"
)

// RequireAuth gates protected routes: requests without an authenticated
// session are redirected to the login page instead of being served.
func RequireAuth(sessions *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.IsAuthenticated(r) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
