package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

// Page sizes per surface.
const (
	publicPageSize     = 12
	ownPageSize        = 15
	moderationPageSize = 20
	warningsPageSize   = 10
)

// ArticlesHandler serves the public read surface.
type ArticlesHandler struct {
	service publisher.Service
}

// NewArticlesHandler creates the public articles handler.
func NewArticlesHandler(service publisher.Service) *ArticlesHandler {
	return &ArticlesHandler{service: service}
}

// Routes returns the public article routes.
func (h *ArticlesHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{slug}", h.GetBySlug)

	return r
}

// List returns published articles, newest first, with optional category,
// featured, locale, and search filters.
func (h *ArticlesHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := publisher.ArticleFilters{
		Locale: r.URL.Query().Get("locale"),
		Search: r.URL.Query().Get("search"),
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, publisher.NewValidationError("category_id", "invalid category id"))
			return
		}
		filters.CategoryID = &id
	}
	if raw := r.URL.Query().Get("featured"); raw != "" {
		featured := raw == "true" || raw == "1"
		filters.Featured = &featured
	}

	page := parsePage(r, publicPageSize)
	articles, total, err := h.service.ListPublishedArticles(r.Context(), filters, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondPage(w, r, articles, page, total)
}

// GetBySlug returns one published article and counts the view.
func (h *ArticlesHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	article, err := h.service.GetPublishedArticle(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, article)
}

func parsePage(r *http.Request, size int) publisher.Page {
	number := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			number = n
		}
	}
	return publisher.Page{Number: number, Size: size}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, publisher.NewValidationError(name, "invalid identifier")
	}
	return id, nil
}
