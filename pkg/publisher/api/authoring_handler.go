package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

// AuthoringHandler serves the authenticated authoring surface: the author's
// own articles through their draft lifecycle.
type AuthoringHandler struct {
	service publisher.Service
}

// NewAuthoringHandler creates the authoring handler.
func NewAuthoringHandler(service publisher.Service) *AuthoringHandler {
	return &AuthoringHandler{service: service}
}

// Routes returns the authoring routes. The router mounts these behind
// Authenticate.
func (h *AuthoringHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListOwn)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/submit", h.Submit)

	return r
}

// createArticlePayload accepts both creation wire formats: the single-locale
// authoring shape ("translation") and the multi-locale shape
// ("translations"). Exactly one must be present.
type createArticlePayload struct {
	CategoryID    uuid.UUID                    `json:"category_id"`
	Translation   *publisher.TranslationInput  `json:"translation,omitempty"`
	Translations  []publisher.TranslationInput `json:"translations,omitempty"`
	Tags          []string                     `json:"tags,omitempty"`
	ExternalLinks []publisher.LinkInput        `json:"external_links,omitempty"`
	FeaturedImage string                       `json:"featured_image,omitempty"`
	ReadingTime   int                          `json:"reading_time,omitempty"`
	IsFeatured    bool                         `json:"is_featured,omitempty"`
}

func (h *AuthoringHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createArticlePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	actor := CurrentUser(r)

	var article *publisher.Article
	var err error
	switch {
	case payload.Translation != nil && len(payload.Translations) > 0:
		writeError(w, r, publisher.NewValidationError("translations", "supply either translation or translations, not both"))
		return
	case len(payload.Translations) > 0:
		article, err = h.service.CreateMultilocaleArticle(r.Context(), actor, publisher.CreateMultilocaleRequest{
			CategoryID:    payload.CategoryID,
			Translations:  payload.Translations,
			FeaturedImage: payload.FeaturedImage,
			IsFeatured:    payload.IsFeatured,
		})
	case payload.Translation != nil:
		article, err = h.service.CreateArticle(r.Context(), actor, publisher.CreateArticleRequest{
			CategoryID:    payload.CategoryID,
			Translation:   *payload.Translation,
			Tags:          payload.Tags,
			ExternalLinks: payload.ExternalLinks,
			FeaturedImage: payload.FeaturedImage,
			ReadingTime:   payload.ReadingTime,
		})
	default:
		writeError(w, r, publisher.NewValidationError("translation", "article content is required"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusCreated, "article created", article)
}

func (h *AuthoringHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r, ownPageSize)
	articles, total, err := h.service.ListOwnArticles(r.Context(), CurrentUser(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondPage(w, r, articles, page, total)
}

func (h *AuthoringHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	article, err := h.service.GetArticle(r.Context(), CurrentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, article)
}

type updateArticlePayload struct {
	CategoryID    *uuid.UUID                  `json:"category_id,omitempty"`
	ReadingTime   *int                        `json:"reading_time,omitempty"`
	FeaturedImage *string                     `json:"featured_image,omitempty"`
	Translation   *publisher.TranslationInput `json:"translation,omitempty"`
	Tags          *[]string                   `json:"tags,omitempty"`
	ExternalLinks *[]publisher.LinkInput      `json:"external_links,omitempty"`
}

func (h *AuthoringHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload updateArticlePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, publisher.NewValidationError("body", "invalid JSON body"))
		return
	}

	article, err := h.service.UpdateArticle(r.Context(), CurrentUser(r), publisher.UpdateArticleRequest{
		ArticleID:     id,
		CategoryID:    payload.CategoryID,
		ReadingTime:   payload.ReadingTime,
		FeaturedImage: payload.FeaturedImage,
		Translation:   payload.Translation,
		Tags:          payload.Tags,
		ExternalLinks: payload.ExternalLinks,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "article updated", article)
}

func (h *AuthoringHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	article, err := h.service.SubmitArticle(r.Context(), CurrentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "article submitted for review", article)
}

func (h *AuthoringHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.DeleteArticle(r.Context(), CurrentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "article deleted", nil)
}
