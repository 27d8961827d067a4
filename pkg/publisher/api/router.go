package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/auth"
	"github.com/prokash-cms/prokash/pkg/publisher/media"
)

// NewRouter assembles the full HTTP surface.
func NewRouter(service publisher.Service, authn *auth.Authenticator, pipeline *media.Pipeline) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	articles := NewArticlesHandler(service)
	authoring := NewAuthoringHandler(service)
	moderation := NewModerationHandler(service)
	users := NewUsersHandler(service)
	authHandler := NewAuthHandler(authn)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public surface
	r.Mount("/api/v1/articles", articles.Routes())
	r.Mount("/api/v1/auth", authHandler.PublicRoutes())

	// Authenticated surface
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(authn.TokenAuth()))
		r.Use(Authenticate(authn))

		r.Mount("/api/v1/account", authHandler.PrivateRoutes())
		r.Mount("/api/v1/my/articles", authoring.Routes())
		r.Mount("/api/v1/my/warnings", users.SelfRoutes())
		if pipeline != nil {
			r.Mount("/api/v1/media", NewMediaHandler(pipeline).Routes())
		}

		// Moderator surface
		r.Group(func(r chi.Router) {
			r.Use(RequireModerator)
			r.Mount("/api/v1/moderation", moderation.Routes())
			r.Mount("/api/v1/users", users.ModeratorRoutes())
		})
	})

	return r
}
