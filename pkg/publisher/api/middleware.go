package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/auth"
)

type contextKey string

const userKey contextKey = "current_user"

// Authenticate resolves verified token claims to a live user, enforcing the
// token epoch and the trust gate on every request. Must sit behind
// jwtauth.Verifier.
func Authenticate(authn *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				writeError(w, r, publisher.ErrUnauthorized)
				return
			}

			user, err := authn.UserFromClaims(r.Context(), claims)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireModerator gates moderation routes.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil || !user.CanModerate() {
			writeError(w, r, publisher.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the authenticated user, or nil on public routes.
func CurrentUser(r *http.Request) *publisher.User {
	user, _ := r.Context().Value(userKey).(*publisher.User)
	return user
}
