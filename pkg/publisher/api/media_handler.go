package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/media"
)

// multipartMemoryLimit caps how much of an upload is buffered in memory
// before spilling to disk.
const multipartMemoryLimit = 10 << 20

type ingestFunc func(ctx context.Context, r io.Reader, filename, folder string) (*media.UploadResult, error)

// MediaHandler serves the upload surface.
type MediaHandler struct {
	pipeline *media.Pipeline
}

// NewMediaHandler creates the media handler.
func NewMediaHandler(pipeline *media.Pipeline) *MediaHandler {
	return &MediaHandler{pipeline: pipeline}
}

// Routes returns the media routes. The router mounts these behind
// Authenticate.
func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/images", h.UploadImage)
	r.Post("/videos", h.UploadVideo)
	r.Post("/files", h.UploadFile)
	r.Get("/download-url", h.DownloadURL)
	r.Delete("/images", h.DeleteImage)
	r.Delete("/files", h.DeleteFile)

	return r
}

func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.pipeline.UploadImage)
}

func (h *MediaHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.pipeline.UploadVideo)
}

func (h *MediaHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.pipeline.UploadFile)
}

// upload reads the multipart "file" part and an optional "folder" field, then
// hands both to the pipeline.
func (h *MediaHandler) upload(w http.ResponseWriter, r *http.Request, ingest ingestFunc) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, r, publisher.NewValidationError("file", "multipart form required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, publisher.NewValidationError("file", "file part is required"))
		return
	}
	defer file.Close()

	result, err := ingest(r.Context(), file, header.Filename, r.FormValue("folder"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusCreated, "upload stored", result)
}

// DownloadURL resolves a stored path or public URL to a fetchable link,
// presigned when the storage backend supports it. The optional "filename"
// query sets the suggested download name.
func (h *MediaHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	pathOrURL := r.URL.Query().Get("path")
	if pathOrURL == "" {
		writeError(w, r, publisher.NewValidationError("path", "path or url is required"))
		return
	}

	url, err := h.pipeline.DownloadURL(r.Context(), pathOrURL, r.URL.Query().Get("filename"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"url": url})
}

type deletePayload struct {
	Path string `json:"path"`
}

func (h *MediaHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.pipeline.DeleteImage)
}

func (h *MediaHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.pipeline.DeleteFile)
}

func (h *MediaHandler) delete(w http.ResponseWriter, r *http.Request, remove func(context.Context, string) error) {
	var payload deletePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Path == "" {
		writeError(w, r, publisher.NewValidationError("path", "path or url is required"))
		return
	}

	if err := remove(r.Context(), payload.Path); err != nil {
		writeError(w, r, err)
		return
	}
	respondMessage(w, r, http.StatusOK, "deleted", nil)
}
