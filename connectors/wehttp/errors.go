package wehttp

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// StatusOf maps service errors onto HTTP status codes.
func StatusOf(err error) int {
	var invalid es.InvalidCommand
	var malformed es.MalformedCommand
	var encoding *es.InvalidEncodingError
	var unknown es.CommandNotFoundError
	var rejected es.CommandRejected

	switch {
	case errors.As(err, &invalid), errors.As(err, &malformed), errors.As(err, &encoding), errors.As(err, &unknown):
		return http.StatusBadRequest
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, es.RevisionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Status: status, Error: message})
}

// ServiceError writes err with its mapped status. Internal failures are
// reported without detail.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		Error(w, r, status, "internal error")
		return
	}

	Error(w, r, status, err.Error())
}
