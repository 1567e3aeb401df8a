package middleware

import (
	"net/http"

	"github.com/collectory/registry/internal/auth"
)

// RemoteUser stores the authenticated user from the X-Remote-User header in
// the request context. The header is set by the authenticating reverse
// proxy; requests without it run as the anonymous principal and will be
// rejected by the authorizer when they try to write.
func RemoteUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := r.Header.Get("X-Remote-User"); user != "" {
			r = r.WithContext(auth.WithPrincipal(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}
