package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

// ModerationHandler serves the moderation queue and transitions. All routes
// sit behind RequireModerator.
type ModerationHandler struct {
	service publisher.Service
}

// NewModerationHandler creates the moderation handler.
func NewModerationHandler(service publisher.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// Routes returns the moderation routes.
func (h *ModerationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/queue", h.Queue)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
	r.Post("/{id}/request-changes", h.RequestChanges)
	r.Post("/{id}/publish", h.Publish)
	r.Post("/{id}/unpublish", h.Unpublish)
	r.Get("/{id}/log", h.Log)

	return r
}

// Queue lists pending articles, oldest submission first.
func (h *ModerationHandler) Queue(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r, moderationPageSize)
	articles, total, err := h.service.ListPendingArticles(r.Context(), CurrentUser(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondPage(w, r, articles, page, total)
}

type approvePayload struct {
	Comment            string `json:"comment,omitempty"`
	PublishImmediately bool   `json:"publish_immediately,omitempty"`
}

func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload approvePayload
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
			return
		}
	}

	article, err := h.service.ApproveArticle(r.Context(), CurrentUser(r), publisher.ApproveRequest{
		ArticleID:          id,
		Comment:            payload.Comment,
		PublishImmediately: payload.PublishImmediately,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "article approved", article)
}

type reasonPayload struct {
	Reason   string `json:"reason,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload reasonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	article, err := h.service.RejectArticle(r.Context(), CurrentUser(r), publisher.RejectRequest{
		ArticleID: id,
		Reason:    payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "article rejected", article)
}

func (h *ModerationHandler) RequestChanges(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload reasonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	article, err := h.service.RequestChanges(r.Context(), CurrentUser(r), publisher.RequestChangesRequest{
		ArticleID: id,
		Feedback:  payload.Feedback,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "changes requested", article)
}

func (h *ModerationHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	article, err := h.service.PublishArticle(r.Context(), CurrentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "article published", article)
}

func (h *ModerationHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload reasonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	article, err := h.service.UnpublishArticle(r.Context(), CurrentUser(r), publisher.UnpublishRequest{
		ArticleID: id,
		Reason:    payload.Reason,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "article unpublished", article)
}

func (h *ModerationHandler) Log(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.service.ModerationLog(r.Context(), CurrentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, entries)
}
