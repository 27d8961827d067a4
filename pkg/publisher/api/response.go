package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

// Envelope is the uniform response body. Success responses carry Data and
// optionally Meta; failures carry Message and field Errors.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Meta    *Meta             `json:"meta,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Meta carries pagination totals.
type Meta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: true, Data: data})
}

func respondPage(w http.ResponseWriter, r *http.Request, data interface{}, page publisher.Page, total int) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, Envelope{
		Success: true,
		Data:    data,
		Meta:    &Meta{Page: page.Number, PerPage: page.Size, Total: total},
	})
}

func respondMessage(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: true, Message: message, Data: data})
}

// writeError maps domain errors onto the HTTP taxonomy. Unrecognized errors
// become opaque 500s; the detail goes to the log, not the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *publisher.ValidationError

	status := http.StatusInternalServerError
	message := "internal server error"
	var fields map[string]string

	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		message = "validation failed"
		fields = verr.Fields
	case errors.Is(err, publisher.ErrValidation),
		errors.Is(err, publisher.ErrNotSubmittable),
		errors.Is(err, publisher.ErrInvalidMediaType),
		errors.Is(err, publisher.ErrMediaTooLarge):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	case errors.Is(err, publisher.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "invalid credentials"
	case errors.Is(err, publisher.ErrAccountBlocked):
		status = http.StatusForbidden
		message = "account is blocked"
	case errors.Is(err, publisher.ErrUnauthorized),
		errors.Is(err, publisher.ErrEditNotPermitted):
		status = http.StatusForbidden
		message = "not allowed"
	case errors.Is(err, publisher.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, publisher.ErrInvalidTransition):
		status = http.StatusConflict
		message = "invalid status transition"
	case errors.Is(err, publisher.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
		message = "storage unavailable"
	case errors.Is(err, publisher.ErrStorageInconsistent):
		status = http.StatusInternalServerError
		message = "storage cleanup incomplete"
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: false, Message: message, Errors: fields})
}
