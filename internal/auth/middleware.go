package auth

import (
	"net/http"
	"strings"
)

// Gateway headers carrying the authenticated platform identity. The portal's
// front proxy authenticates the session and forwards these with every
// request; an absent user id means an unauthenticated request.
const (
	HeaderUserID     = "X-User-Id"
	HeaderUserLogin  = "X-User-Login"
	HeaderUserName   = "X-User-Displayname"
	HeaderUserGroups = "X-User-Groups"
)

// Middleware attaches the gateway-authenticated user to the request context.
// Requests without identity headers pass through without a user; handlers
// decide whether that is acceptable.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderUserID)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		user := &User{
			ID:          id,
			Login:       r.Header.Get(HeaderUserLogin),
			DisplayName: r.Header.Get(HeaderUserName),
		}
		if groups := r.Header.Get(HeaderUserGroups); groups != "" {
			for _, g := range strings.Split(groups, ",") {
				if g = strings.TrimSpace(g); g != "" {
					user.Groups = append(user.Groups, g)
				}
			}
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
