package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/auth"
)

// AuthHandler serves registration, login, and account self-service.
type AuthHandler struct {
	authn *auth.Authenticator
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(authn *auth.Authenticator) *AuthHandler {
	return &AuthHandler{authn: authn}
}

// PublicRoutes returns the unauthenticated auth routes.
func (h *AuthHandler) PublicRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	return r
}

// PrivateRoutes returns the authenticated account routes.
func (h *AuthHandler) PrivateRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/me", h.Me)
	r.Post("/change-password", h.ChangePassword)

	return r
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	user, err := h.authn.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusCreated, "account created", user)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  *publisher.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	user, token, err := h.authn.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, CurrentUser(r))
}

type changePasswordPayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload changePasswordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	err := h.authn.ChangePassword(r.Context(), CurrentUser(r), payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "password changed; please log in again", nil)
}
