package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

// UsersHandler serves the trust surface: blocks and warnings.
type UsersHandler struct {
	service publisher.Service
}

// NewUsersHandler creates the users handler.
func NewUsersHandler(service publisher.Service) *UsersHandler {
	return &UsersHandler{service: service}
}

// ModeratorRoutes returns the moderator-only trust routes.
func (h *UsersHandler) ModeratorRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/{id}/block", h.Block)
	r.Post("/{id}/unblock", h.Unblock)
	r.Post("/{id}/warn", h.Warn)
	r.Get("/{id}/warnings", h.ListWarningsFor)

	return r
}

// SelfRoutes returns the routes a user calls about their own warnings.
func (h *UsersHandler) SelfRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListOwnWarnings)
	r.Get("/unread-count", h.UnreadCount)
	r.Post("/{id}/read", h.MarkRead)

	return r
}

type blockPayload struct {
	Type         publisher.BlockType `json:"block_type"`
	Reason       string              `json:"reason"`
	DurationDays int                 `json:"duration_days,omitempty"`
}

func (h *UsersHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload blockPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	err = h.service.BlockUser(r.Context(), CurrentUser(r), publisher.BlockUserRequest{
		UserID:       userID,
		Type:         payload.Type,
		Reason:       payload.Reason,
		DurationDays: payload.DurationDays,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "user blocked", nil)
}

func (h *UsersHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload reasonPayload
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
			return
		}
	}

	err = h.service.UnblockUser(r.Context(), CurrentUser(r), publisher.UnblockUserRequest{
		UserID: userID,
		Reason: payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "user unblocked", nil)
}

type warnPayload struct {
	Severity      publisher.WarningSeverity `json:"severity"`
	Title         string                    `json:"title"`
	Reason        string                    `json:"reason"`
	ExpiresInDays int                       `json:"expires_in_days,omitempty"`
}

func (h *UsersHandler) Warn(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload warnPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	warning, err := h.service.WarnUser(r.Context(), CurrentUser(r), publisher.WarnUserRequest{
		UserID:        userID,
		Severity:      payload.Severity,
		Title:         payload.Title,
		Reason:        payload.Reason,
		ExpiresInDays: payload.ExpiresInDays,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusCreated, "warning issued", warning)
}

func (h *UsersHandler) ListWarningsFor(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	page := parsePage(r, warningsPageSize)
	warnings, total, err := h.service.ListWarnings(r.Context(), CurrentUser(r), userID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondPage(w, r, warnings, page, total)
}

func (h *UsersHandler) ListOwnWarnings(w http.ResponseWriter, r *http.Request) {
	actor := CurrentUser(r)
	page := parsePage(r, warningsPageSize)
	warnings, total, err := h.service.ListWarnings(r.Context(), actor, actor.ID, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondPage(w, r, warnings, page, total)
}

func (h *UsersHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadWarningCount(r.Context(), CurrentUser(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]int{"unread_count": count})
}

func (h *UsersHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	warningID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.MarkWarningRead(r.Context(), CurrentUser(r), warningID); err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "warning marked read", nil)
}
